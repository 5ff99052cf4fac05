package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"golang-matchgen/internal/templates"
	perrors "golang-matchgen/pkg/errors"
)

var templatesRelation string

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the scenario template catalog",
	Long: `Templates lists the scenario catalog, optionally filtered by the
relationship kind a template targets.

Examples:
  matchgen templates
  matchgen templates --relation one_to_one`,
	RunE: runTemplates,
}

func init() {
	rootCmd.AddCommand(templatesCmd)

	templatesCmd.Flags().StringVarP(&templatesRelation, "relation", "r", "", "filter by relationship kind")
}

func runTemplates(cmd *cobra.Command, args []string) error {
	list := templates.All()
	if templatesRelation != "" {
		list = templates.ByKind(templates.Kind(templatesRelation))
		if len(list) == 0 {
			return perrors.TemplateError(perrors.CodeUnknownRelation, templatesRelation, nil)
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tDESCRIPTION")
	for _, tpl := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", tpl.ID, tpl.Kind, tpl.Description)
	}
	return w.Flush()
}
