package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"catalog-analyzer/internal/config"
	"catalog-analyzer/pkg/container"
	"catalog-analyzer/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:          "catalog-analyzer",
	Short:        "Shop unit catalog with derived category prices",
	SilenceUsage: true,
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API server",
	RunE:  runServer,
}

func init() {
	serverCmd.Flags().String("host", "0.0.0.0", "address to listen on")
	serverCmd.Flags().Int("port", 8080, "port to listen on")
	serverCmd.Flags().Bool("debug", false, "verbose logging and pretty console output")
	rootCmd.AddCommand(serverCmd)
}

func main() {
	// .env covers local runs; deployments set the environment directly.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	v := viper.New()

	// A flag given on the command line wins over the matching environment
	// variable; an omitted flag falls back to it.
	if err := v.BindPFlag("SERVER_HOST", cmd.Flags().Lookup("host")); err != nil {
		return err
	}
	if err := v.BindPFlag("SERVER_PORT", cmd.Flags().Lookup("port")); err != nil {
		return err
	}
	if err := v.BindPFlag("SERVER_DEBUG", cmd.Flags().Lookup("debug")); err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logger.Init(cfg.Server.Debug)
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	c, err := container.NewContainer(v, cfg)
	if err != nil {
		return err
	}
	defer c.Cleanup()

	return serve(c)
}
