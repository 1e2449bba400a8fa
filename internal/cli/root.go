package cli

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/vedanshmuni/videochat/internal/ui"
	"github.com/vedanshmuni/videochat/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "videochat",
	Short:   "Anonymous peer-to-peer video chat over WebRTC",
	Long:    `Videochat pairs you with a random stranger, optionally by shared interests, and negotiates a direct WebRTC connection for audio, video and text chat. Nothing is stored: sessions live only as long as the connection.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
