package ui

import (
	"fmt"
	"strings"

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

// SelectProfile prompts the user to select a profile from a list.
func SelectProfile(profiles []string, prompt string) (string, error) {
	if len(profiles) == 0 {
		return "", fmt.Errorf("no profiles to select from")
	}

	if len(profiles) == 1 {
		return profiles[0], nil
	}

	searcher := func(input string, index int) bool {
		return strings.Contains(strings.ToLower(profiles[index]), strings.ToLower(input))
	}

	p := promptui.Select{
		Label:    prompt,
		Items:    profiles,
		Size:     10,
		Searcher: searcher,
	}

	_, result, err := p.Run()
	if err != nil {
		return "", err
	}

	return result, nil
}
