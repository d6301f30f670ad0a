package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dialflow",
	Short: "Dialflow runs voice call workflows over a websocket relay",
	Long: `Dialflow executes call-flow graphs for live voice calls. A telephony
relay connects over websocket, streams caller utterances in, and receives
the text to speak back.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
