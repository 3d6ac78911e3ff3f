package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var RootCmd = &cobra.Command{
	Use:   "db-bridge",
	Short: "A database table migration tool",
	Long: `
  ____  ____    ____  ____  ___ ____   ____ _____
 |  _ \| __ )  | __ )|  _ \|_ _|  _ \ / ___| ____|
 | | | |  _ \  |  _ \| |_) || || | | | |  _|  _|
 | |_| | |_) | | |_) |  _ < | || |_| | |_| | |___
 |____/|____/  |____/|_| \_\___|____/ \____|_____|

DB BRIDGE - Table & Data Migrator
Copies table structure and data between database endpoints,
in foreign-key dependency order.
`,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./db-bridge.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		ex, err := os.Executable()
		if err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}

		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("db-bridge")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv() // read in environment variables that match

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
