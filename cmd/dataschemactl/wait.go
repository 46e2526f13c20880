package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshmarlow/data-schema/pkg/db"
)

// waitCmd represents the wait command
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for the data-schema server to be ready",
	Long: `Wait for the data-schema server to be ready by polling the health endpoint.

This command will repeatedly check the server health until it responds
successfully or the maximum number of retries is reached.

With --database the configured database is polled instead of the server.

Example:
  dataschemactl wait
  dataschemactl wait --port 3000 --retries 60
  dataschemactl wait --database`,
	Run: func(cmd *cobra.Command, args []string) {
		retries, _ := cmd.Flags().GetInt("retries")
		if database, _ := cmd.Flags().GetBool("database"); database {
			if err := waitForDatabase(retries); err != nil {
				fmt.Fprintf(os.Stderr, "Database did not become ready: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("database is ready")
			return
		}

		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")

		url := fmt.Sprintf("http://%s:%d/health", host, port)
		if err := waitForServer(url, retries, time.Second); err != nil {
			fmt.Fprintf(os.Stderr, "Server did not become ready: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("data-schema server is ready")
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().String("host", "localhost", "Server host to check")
	waitCmd.Flags().IntP("port", "p", defaultPort(), "Server port to check")
	waitCmd.Flags().IntP("retries", "r", 90, "Number of retries")
	waitCmd.Flags().Bool("database", false, "Wait for the database instead of the server")
}

func waitForDatabase(retries int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(retries)*time.Second)
	defer cancel()
	return db.WaitForDatabase(ctx, cfg.DatabaseURL, time.Second)
}

func defaultPort() int {
	cfg, err := loadConfig()
	if err != nil {
		return 8080
	}
	return cfg.Port
}

func waitForServer(url string, retries int, interval time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}

	fmt.Println("Waiting for data-schema to be ready...")

	for i := 0; i < retries; i++ {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode < 300 {
				fmt.Println()
				return nil
			}
		}

		fmt.Print(".")
		time.Sleep(interval)
	}

	fmt.Println()
	return fmt.Errorf("%s is not ready after %d attempts", url, retries)
}
