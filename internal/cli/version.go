package cli

import (
	"fmt"
	goruntime "runtime"

	"github.com/spf13/cobra"

	"github.com/lashkaryadi/get-me-a-tutor/internal/app"
)

func newVersionCommand(rt *runtime) *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: noApp(),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if short {
				fmt.Fprintln(out(cmd), app.Version)
				return nil
			}
			if rt.jsonOut {
				return writeJSON(out(cmd), map[string]string{
					"version":   app.Version,
					"commit":    commit,
					"built":     buildTime,
					"goVersion": goruntime.Version(),
					"platform":  goruntime.GOOS + "/" + goruntime.GOARCH,
				})
			}
			w := out(cmd)
			fmt.Fprintf(w, "tutorctl version %s\n", app.Version)
			fmt.Fprintf(w, "  commit:     %s\n", commit)
			fmt.Fprintf(w, "  built:      %s\n", buildTime)
			fmt.Fprintf(w, "  go version: %s\n", goruntime.Version())
			fmt.Fprintf(w, "  platform:   %s/%s\n", goruntime.GOOS, goruntime.GOARCH)
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print version string only")
	return cmd
}
