// adqlc compiles ADQL queries from the command line.
//
//	adqlc compile --catalog cat.yaml "SELECT TOP 10 ra, dec FROM stars"
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/astrovo/adql"
	"github.com/astrovo/adql/sql"
)

var (
	catalogPath   string
	functionsPath string
	verbose       bool
)

func main() {
	root := &cobra.Command{
		Use:           "adqlc",
		Short:         "ADQL to Postgres SQL compiler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	compileCmd := &cobra.Command{
		Use:   "compile [query]",
		Short: "Compile a query and print the SQL, parameters and output schema",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompile,
	}
	compileCmd.Flags().StringVarP(&catalogPath, "catalog", "c", "", "table catalog file (yaml)")
	compileCmd.Flags().StringVarP(&functionsPath, "functions", "f", "", "user defined function file (yaml)")
	compileCmd.MarkFlagRequired("catalog")
	root.AddCommand(compileCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runCompile(cmd *cobra.Command, args []string) error {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return err
	}
	catalog, err := sql.ParseCatalog(data)
	if err != nil {
		return err
	}

	var opts []adql.Option
	if functionsPath != "" {
		udfData, err := os.ReadFile(functionsPath)
		if err != nil {
			return err
		}
		registry := sql.Defaults()
		if err := registry.LoadYAML(udfData); err != nil {
			return err
		}
		opts = append(opts, adql.WithFunctions(registry))
	}

	compiler := adql.New(catalog, opts...)
	ctx := sql.NewContext(context.Background(), sql.WithQuery(args[0]))

	result, err := compiler.Compile(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Println(result.SQL)
	for i, p := range result.Parameters {
		fmt.Printf("$%d = %v\n", i+1, p)
	}
	for _, col := range result.Columns {
		fmt.Printf("%s\t%s", col.Name, col.Type.Name())
		if col.Unit != "" {
			fmt.Printf("\t[%s]", col.Unit)
		}
		if col.UCD != "" {
			fmt.Printf("\t%s", col.UCD)
		}
		fmt.Println()
	}
	return nil
}
