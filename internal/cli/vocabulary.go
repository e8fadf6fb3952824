package cli

import (
	"github.com/okian/auscult/internal/domain/vocab"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// VocabularyOptions holds flags for the vocabulary command.
type VocabularyOptions struct {
	*RootOptions
	File string
}

// NewVocabularyCommand creates the vocabulary command.
func NewVocabularyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VocabularyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "vocabulary",
		Short: "Print the effective vocabulary as YAML",
		Long: `Print the vocabulary the pipeline matches against.

The output is a valid vocabulary file: edit the lists you need and point
vocabulary_file (or --vocabulary) at it. Lists left out keep their defaults.

Examples:
  auscult vocabulary > vocabulary.yaml
  auscult vocabulary --file custom.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := vocab.LoadFile(opts.File)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load vocabulary", err)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(v); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "overlay this vocabulary file on the defaults")

	return cmd
}
