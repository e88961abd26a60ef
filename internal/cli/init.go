package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkwell-dev/inkwell/internal/config"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a config file with secure defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			force, _ := cmd.Flags().GetBool("force")
			if output == "" {
				output = "inkwell.json"
			}
			return writeDefaultConfig(output, force)
		},
	}
	cmd.Flags().StringP("output", "o", "", "output config file path (default: ./inkwell.json)")
	cmd.Flags().Bool("force", false, "overwrite an existing config file")
	return cmd
}

func writeDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	secret, err := config.GenerateRandomSecret()
	if err != nil {
		return err
	}

	cfg := map[string]any{
		"server": map[string]any{
			"addr": ":8080",
		},
		"auth": map[string]any{
			"provider":   "builtin",
			"jwt_secret": secret,
			"jwt_expiry": "24h",
		},
		"storage": map[string]any{
			"driver": "sqlite",
			"dsn":    "inkwell.db",
		},
		"quota": map[string]any{
			"free_post_limit": 3,
		},
		"logging": map[string]any{
			"level":  "info",
			"format": "json",
		},
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("wrote %s\n", path)
	return nil
}
