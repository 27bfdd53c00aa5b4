package ui

import (
	"fmt"
	"strings"

	"diem/pkg/registry"

	"github.com/manifoldco/promptui"
)

// Confirm prompts the user for yes/no confirmation.
func Confirm(prompt string, defaultYes bool) (bool, error) {
	label := prompt
	if defaultYes {
		label += " [Y/n]"
	} else {
		label += " [y/N]"
	}

	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Default:   "",
	}

	if defaultYes {
		p.Default = "y"
	}

	result, err := p.Run()
	if err != nil {
		if err == promptui.ErrAbort {
			return false, nil
		}
		return defaultYes, nil // Return default on error
	}

	result = strings.ToLower(strings.TrimSpace(result))
	if result == "" {
		return defaultYes, nil
	}

	return result == "y" || result == "yes", nil
}

// SelectPackage prompts the user to select a package from a list.
func SelectPackage(packages []*registry.Package, prompt string) (*registry.Package, error) {
	if len(packages) == 0 {
		return nil, fmt.Errorf("no packages to select from")
	}

	if len(packages) == 1 {
		return packages[0], nil
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ .Provider | magenta }}:{{ .Name | cyan }} {{ .Version | green }}",
		Inactive: "  {{ .Provider | faint }}:{{ .Name }} {{ .Version | faint }}",
		Selected: "✓ {{ .Provider | magenta }}:{{ .Name | cyan }} {{ .Version | green }}",
		Details: `
--------- Package ----------
{{ "Name:" | faint }}	{{ .Name }}
{{ "Version:" | faint }}	{{ .Version }}
{{ "Provider:" | faint }}	{{ .Provider }}
{{ "Description:" | faint }}	{{ .Description }}`,
	}

	searcher := func(input string, index int) bool {
		pkg := packages[index]
		input = strings.ToLower(input)
		return strings.Contains(strings.ToLower(pkg.Name), input) ||
			strings.Contains(strings.ToLower(pkg.Provider), input)
	}

	p := promptui.Select{
		Label:     prompt,
		Items:     packages,
		Templates: templates,
		Size:      10,
		Searcher:  searcher,
	}

	index, _, err := p.Run()
	if err != nil {
		return nil, err
	}

	return packages[index], nil
}

// SelectProvider prompts the user to select a provider namespace.
func SelectProvider(providers []string, prompt string) (string, error) {
	if len(providers) == 0 {
		return "", fmt.Errorf("no providers available")
	}

	if len(providers) == 1 {
		return providers[0], nil
	}

	p := promptui.Select{
		Label: prompt,
		Items: providers,
		Size:  10,
	}

	_, result, err := p.Run()
	if err != nil {
		return "", err
	}

	return result, nil
}

// Input prompts the user for text input.
func Input(prompt string, defaultValue string) (string, error) {
	p := promptui.Prompt{
		Label:   prompt,
		Default: defaultValue,
	}

	result, err := p.Run()
	if err != nil {
		return defaultValue, err
	}

	return result, nil
}
