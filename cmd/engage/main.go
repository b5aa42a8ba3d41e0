package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "engage",
	Short: "Daily goals, streaks and credit store service",
	Long: `engage tracks daily goals and streaks, pays credits for completed
goals and tasks, and lets an admin confirm store purchases by scanning
a buyer's one-time QR code.`,
	SilenceUsage: true,
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
