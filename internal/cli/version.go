// internal/cli/version.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("mapnikdeps version 0.2.0")
		fmt.Println("Mapnik dependency provisioner")
		fmt.Println("https://github.com/mapnik-tools/mapnikdeps")
	},
}
