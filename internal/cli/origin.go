package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/actgraph/pkg/datamodel"
	apperrors "github.com/matzehuels/actgraph/pkg/errors"
	"github.com/matzehuels/actgraph/pkg/integrations/act"
)

// originCommand creates the origin management command.
func (c *CLI) originCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "origin",
		Short: "Manage ACT origins",
		Long: `List, add and delete origins on an ACT platform.

The platform URL and credentials are taken from the same flags, environment
variables and config file as the graph command.`,
	}

	cmd.AddCommand(c.originListCommand())
	cmd.AddCommand(c.originAddCommand())
	cmd.AddCommand(c.originDeleteCommand())

	return cmd
}

// actClient builds a platform client from the command configuration.
func (c *CLI) actClient(cmd *cobra.Command) (*act.Client, Config, error) {
	cfg, err := c.loadConfig(cmd, nil)
	if err != nil {
		return nil, Config{}, err
	}
	actCfg, err := cfg.ACTConfig()
	if err != nil {
		return nil, Config{}, err
	}
	client, err := act.NewClient(actCfg)
	return client, cfg, err
}

// originListCommand creates the "origin list" subcommand.
func (c *CLI) originListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List origins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := c.actClient(cmd)
			if err != nil {
				return err
			}
			origins, err := client.ListOrigins(cmd.Context())
			if err != nil {
				return err
			}
			for _, o := range origins {
				fmt.Fprintln(cmd.OutOrStdout(), o.String())
			}
			c.Logger.Debug("listed origins", "count", len(origins))
			return nil
		},
	}
}

// originAddCommand creates the "origin add" subcommand. Missing fields are
// prompted for on stdin.
func (c *CLI) originAddCommand() *cobra.Command {
	var name, description, trust, organization string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an origin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := c.actClient(cmd)
			if err != nil {
				return err
			}

			if name == "" {
				p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
				name = p.ask("Origin name: ")
				description = p.ask("Origin description: ")
				trust = p.ask(fmt.Sprintf("Origin trust (float 0.0-1.0. Default=%s): ", cfg.DefaultTrust))
				organization = p.ask("Origin organization (UUID): ")
			}

			origin, err := newOrigin(name, description, trust, organization, cfg.DefaultTrust)
			if err != nil {
				return err
			}
			added, err := client.AddOrigin(cmd.Context(), origin)
			if err != nil {
				return err
			}
			printSuccess("Origin added")
			fmt.Fprintln(cmd.OutOrStdout(), added.String())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "origin name (prompts for all fields when omitted)")
	f.StringVar(&description, "description", "", "origin description")
	f.StringVar(&trust, "trust", "", "origin trust, 0.0-1.0 (default: "+keyDefaultTrust+" setting)")
	f.StringVar(&organization, "organization", "", "organization UUID")
	cmd.Flags().String(keyDefaultTrust, defaultConfig().DefaultTrust, "trust used when none is given")

	return cmd
}

// newOrigin validates user input into an origin. An empty trust falls back
// to defaultTrust.
func newOrigin(name, description, trust, organization, defaultTrust string) (datamodel.Origin, error) {
	if strings.TrimSpace(trust) == "" {
		trust = defaultTrust
	}
	value, err := apperrors.ParseTrust(trust)
	if err != nil {
		return datamodel.Origin{}, err
	}
	o := datamodel.Origin{
		Name:         strings.TrimSpace(name),
		Description:  strings.TrimSpace(description),
		Trust:        value,
		Organization: strings.TrimSpace(organization),
	}
	if o.Name == "" {
		return datamodel.Origin{}, apperrors.New(apperrors.ErrCodeInvalidInput, "origin name cannot be empty")
	}
	if o.Organization != "" {
		if err := apperrors.ValidateUUID(o.Organization); err != nil {
			return datamodel.Origin{}, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "organization must be a valid UUID")
		}
	}
	return o, nil
}

// originDeleteCommand creates the "origin delete" subcommand.
func (c *CLI) originDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <origin-id>",
		Short: "Delete an origin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := c.actClient(cmd)
			if err != nil {
				return err
			}
			if err := client.DeleteOrigin(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Origin deleted: %s", args[0])
			return nil
		},
	}
}

// prompter reads answers line by line.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

func (p *prompter) ask(question string) string {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		return ""
	}
	return strings.TrimSpace(p.in.Text())
}
