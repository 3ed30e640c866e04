package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"atelier/api/internal/cmsclient"
	"atelier/api/internal/schema"
)

func (c *cli) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories the server knows about",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := c.client().Categories(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tKIND\tFIELDS")
			for _, cat := range cats {
				kind := "collection"
				if cat.Singleton {
					kind = "singleton"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", cat.ID, cat.Name, kind, len(cat.Fields))
			}
			return tw.Flush()
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <category>",
		Short: "Print every item in a category as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := c.client().List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printJSON(items)
		},
	}
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <category> [id]",
		Short: "Print one item; the id defaults to the singleton",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := c.client()
			var (
				item cmsclient.Item
				err  error
			)
			if len(args) == 2 {
				item, err = client.Get(cmd.Context(), args[0], args[1])
			} else {
				item, err = client.Singleton(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return c.printJSON(item)
		},
	}
}

func (c *cli) putCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "put <category> [id]",
		Short: "Save an item read as a JSON object from --file or stdin",
		Long: `Save an item. Required fields are checked against the server's schema
before the request is sent. Singleton categories ignore the id; new
collection items get a timestamp id when none is given.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := c.readItem(file)
			if err != nil {
				return err
			}

			cats, err := c.client().Categories(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch schema: %w", err)
			}
			registry, err := schema.NewRegistry(cats...)
			if err != nil {
				return err
			}

			id := ""
			if len(args) == 2 {
				id = args[1]
			}
			written, err := c.client(cmsclient.WithRegistry(registry)).Submit(cmd.Context(), args[0], id, values)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "saved %s/%s\n", args[0], written)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file to read (default stdin)")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <category> <id>",
		Short: "Delete one item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.client().Remove(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "deleted %s/%s\n", args[0], args[1])
			return nil
		},
	}
}

func (c *cli) readItem(file string) (cmsclient.Item, error) {
	var r io.Reader = c.in
	if file != "" && file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	var item cmsclient.Item
	if err := decoder.Decode(&item); err != nil {
		return nil, fmt.Errorf("item must be a JSON object: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("item must be a JSON object")
	}
	return item, nil
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
