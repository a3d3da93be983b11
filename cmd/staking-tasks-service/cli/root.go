package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const (
	defaultConfigFileName     = "config.yml"
	defaultDeploymentFileName = "deployment.json"
)

var (
	cfgPath        string
	deploymentPath string
	runOnceTask    string
	rootCmd        = &cobra.Command{
		Use:   "staking-tasks-service",
		Short: "Runs the staking interest collection and inactive account reclamation tasks",
	}
)

func Setup() error {
	homePath, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	defaultConfigPath := getDefaultConfigFile(homePath, defaultConfigFileName)
	defaultDeploymentPath := getDefaultConfigFile(homePath, defaultDeploymentFileName)

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath, fmt.Sprintf("config file (default %s)", defaultConfigPath))
	rootCmd.PersistentFlags().StringVar(&deploymentPath, "deployment", defaultDeploymentPath, fmt.Sprintf("contract deployment file (default %s)", defaultDeploymentPath))
	rootCmd.PersistentFlags().StringVar(&runOnceTask, "run-once", "", "run a single task (collect or fish) immediately and exit")
	if err := rootCmd.Execute(); err != nil {
		return err
	}

	return nil
}

func getDefaultConfigFile(homePath, filename string) string {
	return filepath.Join(homePath, filename)
}

func GetConfigPath() string {
	return cfgPath
}

func GetDeploymentPath() string {
	return deploymentPath
}

func GetRunOnceTask() string {
	return runOnceTask
}
