package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"diem/internal/ui"
)

var providerCmd = &cobra.Command{
	Use:   "provider",
	Short: "Manage package providers",
	Long: `Manage the provider namespaces packages are installed from.

A provider is a user who publishes packages on the shared volume. Bare
package names resolve through the default provider; provider-qualified
names (provider:name) work regardless of this list's order.

Examples:
  diem provider list                # Show configured providers
  diem provider add bob             # Register bob's namespace
  diem provider default bob         # Resolve bare names via bob
  diem provider remove bob          # Unregister bob's namespace`,
}

func init() {
	providerCmd.AddCommand(providerListCmd)
	providerCmd.AddCommand(providerAddCmd)
	providerCmd.AddCommand(providerRemoveCmd)
	providerCmd.AddCommand(providerDefaultCmd)
}

var providerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured providers",
	RunE:  runProviderList,
}

func runProviderList(cmd *cobra.Command, args []string) error {
	providers := reg.Providers()
	if len(providers) == 0 {
		ui.MutedMsg("No providers configured")
		ui.MutedMsg("Register one with: diem provider add <username>")
		return nil
	}

	ui.PrintProviders(providers, reg.DefaultProvider())
	return nil
}

var providerAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Register a provider namespace",
	Long: `Register a user's repository on the shared volume as a package
provider. The user must have published at least once, so that
<share>/<username>/diem/repository exists.`,
	Args: cobra.ExactArgs(1),
	RunE: runProviderAdd,
}

func runProviderAdd(cmd *cobra.Command, args []string) error {
	username := args[0]

	if err := reg.AddProvider(username); err != nil {
		return err
	}
	ui.SuccessMsg("Added provider %s", username)

	if reg.DefaultProvider() == "" {
		if err := reg.SetDefaultProvider(username); err != nil {
			return err
		}
		ui.InfoMsg("%s is now the default provider", username)
	}
	return nil
}

var providerRemoveCmd = &cobra.Command{
	Use:   "remove <username>",
	Short: "Unregister a provider namespace",
	Long: `Unregister a provider. Packages already installed from it stay
installed; they just stop upgrading until the provider is re-added.`,
	Args: cobra.ExactArgs(1),
	RunE: runProviderRemove,
}

func runProviderRemove(cmd *cobra.Command, args []string) error {
	username := args[0]
	wasDefault := reg.DefaultProvider() == username

	if !cfg.Install.AutoConfirm {
		prompt := fmt.Sprintf("Remove provider %s?", username)
		if wasDefault {
			prompt = fmt.Sprintf("Remove default provider %s?", username)
		}
		confirmed, err := ui.Confirm(prompt, false)
		if err != nil {
			return err
		}
		if !confirmed {
			return ErrAborted
		}
	}

	if err := reg.RemoveProvider(username); err != nil {
		return err
	}
	ui.SuccessMsg("Removed provider %s", username)

	if wasDefault {
		ui.WarningMsg("%s was the default provider; bare names will not resolve until a new default is set", username)
	}
	return nil
}

var providerDefaultCmd = &cobra.Command{
	Use:     "default <username>",
	Aliases: []string{"set-default"},
	Short:   "Set the default provider for bare package names",
	Args:    cobra.ExactArgs(1),
	RunE:    runProviderDefault,
}

func runProviderDefault(cmd *cobra.Command, args []string) error {
	username := args[0]
	if err := reg.SetDefaultProvider(username); err != nil {
		return err
	}
	ui.SuccessMsg("Default provider is now %s", username)
	return nil
}
