package cli

import (
	"fmt"
	"slices"

	"github.com/gclaussn/go-camunda/rest"
	"github.com/spf13/cobra"
)

func newRequestCmd(cli *Cli) *cobra.Command {
	var (
		method      string
		contentType = contentTypeValue(rest.ContentTypeQuery)
		fields      map[string]string
		fileNames   map[string]string
		valueMap    map[string]string
		typeMap     map[string]string
	)

	c := cobra.Command{
		Use:   "request PATH",
		Short: "Send a request to any REST API path",
		Long: `Send a request to any REST API path.

The path is resolved against the REST API URL. Fields are encoded as query parameters, JSON or multipart form,
depending on the content type. Variables are sent as field "variables", files are only supported for multipart.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			variables, err := mapVariables(valueMap, typeMap)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(fields))
			for name := range fields {
				names = append(names, name)
			}
			slices.Sort(names)

			req := rest.NewEntity(append(names, "variables", "data")...)
			for _, name := range names {
				req.Set(name, fields[name])
			}
			if variables.Len() != 0 {
				req.Set("variables", variables)
			}

			if len(fileNames) != 0 {
				if rest.ContentType(contentType) != rest.ContentTypeMultipart {
					return fmt.Errorf("files require content type %s", rest.ContentTypeMultipart)
				}

				partNames := make([]string, 0, len(fileNames))
				for name := range fileNames {
					partNames = append(partNames, name)
				}
				slices.Sort(partNames)

				files := rest.NewFiles()
				for _, name := range partNames {
					if err := files.AddFile(name, fileNames[name]); err != nil {
						return err
					}
				}
				req.Set("data", files)
			}

			result, err := cli.client.NewService().
				SetURL(args[0]).
				SetMethod(method).
				SetContentType(contentType.String()).
				SetEntity(req).
				Run(c.Context(), cli.hal)
			if err != nil {
				return err
			}

			if result.StatusCode == 0 {
				return result.Err()
			}

			c.Printf("HTTP %d\n", result.StatusCode)
			if len(result.Body) != 0 {
				c.Println(formatJSON(result.Body))
			}
			return nil
		},
	}

	c.Flags().StringVar(&method, "method", "GET", "HTTP method")
	c.Flags().Var(&contentType, "content-type", "Content type: query, json or multipart")
	c.Flags().StringToStringVar(&fields, "field", nil, "Field, consisting of name and value")
	c.Flags().StringToStringVar(&fileNames, "file", nil, "File, consisting of part name and path - requires content type multipart")

	flagVariables(&c, &valueMap, &typeMap)

	return &c
}
