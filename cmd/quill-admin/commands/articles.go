// ABOUTME: quill-admin article commands: list, show, publish, delete
// ABOUTME: Prints tabwriter tables or YAML and confirms deletes interactively

package commands

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/quill/internal/articles"
)

func listCmd(a *app) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := articles.ParseStatus(status)
			if err != nil {
				return err
			}
			res := a.api.ListArticles(cmd.Context(), st)
			if !res.OK() {
				return res.Failure
			}
			if a.output == "yaml" {
				return writeYAML(cmd.OutOrStdout(), res.Articles)
			}
			printArticleTable(cmd, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only list draft or published articles")
	return cmd
}

func showCmd(a *app) *cobra.Command {
	var withContent bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.api.GetArticle(cmd.Context(), args[0])
			if !res.OK() {
				return res.Failure
			}
			art := res.Article
			if !withContent {
				art.Content = ""
			}
			if a.output == "yaml" {
				return writeYAML(cmd.OutOrStdout(), art)
			}
			printArticle(cmd, art)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withContent, "content", false, "include the article body")
	return cmd
}

func publishCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <id>",
		Short: "Set an article's status to published",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.api.PublishArticle(cmd.Context(), args[0])
			if !res.OK() {
				return res.Failure
			}
			if a.output == "yaml" {
				return writeYAML(cmd.OutOrStdout(), res.Article)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Published %s\n", args[0])
			return nil
		},
	}
}

func deleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "Delete article %s? [y/N]: ", id)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if strings.ToLower(strings.TrimSpace(answer)) != "y" {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}
			res := a.api.DeleteArticle(cmd.Context(), id)
			if !res.OK() {
				return res.Failure
			}
			msg := res.Message
			if msg == "" {
				msg = "deleted " + id
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ %s\n", msg)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func printArticleTable(cmd *cobra.Command, res articles.Result) {
	out := cmd.OutOrStdout()
	cyan := color.New(color.FgCyan)
	fmt.Fprintln(out)
	cyan.Fprintln(out, "  Articles")
	cyan.Fprintln(out, "  --------")

	if len(res.Articles) == 0 {
		fmt.Fprintln(out, "  (no articles)")
		fmt.Fprintln(out)
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tSTATUS\tDATE\tTITLE\tTAGS")
	fmt.Fprintln(w, "  --\t------\t----\t-----\t----")
	for _, art := range res.Articles {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
			truncate(art.ID, 24), art.Status, art.Date, truncate(art.Title, 40), strings.Join(art.Tags, ","))
	}
	w.Flush()
	fmt.Fprintf(out, "\n  %d of %d shown\n\n", len(res.Articles), max(res.Total, len(res.Articles)))
}

func printArticle(cmd *cobra.Command, art *articles.Article) {
	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", art.ID)
	fmt.Fprintf(w, "Title:\t%s\n", art.Title)
	fmt.Fprintf(w, "Status:\t%s\n", art.Status)
	fmt.Fprintf(w, "Date:\t%s\n", art.Date)
	fmt.Fprintf(w, "Tags:\t%s\n", strings.Join(art.Tags, ", "))
	if art.Excerpt != "" {
		fmt.Fprintf(w, "Excerpt:\t%s\n", art.Excerpt)
	}
	if art.ReadTime > 0 {
		fmt.Fprintf(w, "Read time:\t%d min\n", art.ReadTime)
	}
	if art.Icon != "" {
		fmt.Fprintf(w, "Icon:\t%s\n", art.Icon)
	}
	w.Flush()
	if art.Content != "" {
		fmt.Fprintf(out, "\n%s\n", art.Content)
	}
}
