// Command dexlens is a static-analysis CLI over one APK's DEX
// payloads: search the program model, walk its cross-reference index,
// recover constants through the Dalvik VM emulator, and flag dead
// branches with the symbolic flow analyser.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var apkPath string
	var verbose bool

	root := &cobra.Command{
		Use:           "dexlens",
		Short:         "Static analysis over an APK's embedded DEX and native code",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&apkPath, "apk", "", "path to the APK to analyse (required by every subcommand but load)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	newLogger := func() *zap.Logger {
		if verbose {
			l, _ := zap.NewDevelopment()
			return l
		}
		return zap.NewNop()
	}

	root.AddCommand(
		newLoadCmd(newLogger),
		newFindCmd(&apkPath, newLogger),
		newXrefCmd(&apkPath, newLogger),
		newEmulateCmd(&apkPath, newLogger),
		newBranchesCmd(&apkPath, newLogger),
	)
	return root
}
