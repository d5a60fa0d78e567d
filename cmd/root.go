package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/salamyar/salamyar/internal/utils"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `           _
  ___ __ _| | __ _ _ __ ___  _   _  __ _ _ __
 / __/ _' | |/ _' | '_ ' _ \| | | |/ _' | '__|
 \__ \ (_| | | (_| | | | | | | |_| | (_| | |
 |___/\__,_|_|\__,_|_| |_| |_|\__, |\__,_|_|
                              |___/
`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "salamyar",
	Short: "Find vendors that carry your whole shopping list.",
	Long: LOGO + `salamyar searches the Basalam marketplace, keeps track of the products you
pick, and tells you which vendors sell items similar to two or more of them.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.salamyar.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Local .env files take the lowest precedence, below the config file
	// and real environment variables.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".salamyar")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			home, _ := homedir.Dir()
			configPath := home + "/.salamyar.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default values for all keys
	viper.SetDefault("basalam.search_url", "")
	viper.SetDefault("basalam.mlt_url", "")
	viper.SetDefault("basalam.request_timeout", "15s")
	viper.SetDefault("similar.cap", 100)
	viper.SetDefault("similar.page_size", 24)
	viper.SetDefault("aggregate.concurrency", 4)
	viper.SetDefault("ai.provider", "openai")
	viper.SetDefault("ai.api_key", "")
	viper.SetDefault("ai.model", "")
	viper.SetDefault("ai.endpoint", "")
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}
