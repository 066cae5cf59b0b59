// Package prompt provides the interactive terminal prompts `corevaultd init`
// uses to bootstrap a configuration file: a thin wrapper over promptui,
// trimmed to the handful of prompt shapes CoreVault's init flow actually
// needs.
package prompt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("prompt: aborted")

// IsAborted reports whether err indicates the user aborted.
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) || errors.Is(err, ErrAborted)
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsAborted(err) {
		return ErrAborted
	}
	return err
}

// Confirm prompts for yes/no confirmation, defaulting to defaultYes when
// the user just presses Enter.
func Confirm(label string, defaultYes bool) (bool, error) {
	defaultStr := "y/N"
	if defaultYes {
		defaultStr = "Y/n"
	}
	result, err := (&promptui.Prompt{
		Label:     fmt.Sprintf("%s [%s]", label, defaultStr),
		IsConfirm: true,
	}).Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, ErrAborted
		}
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		if result == "" {
			return defaultYes, nil
		}
		return false, err
	}
	return strings.EqualFold(result, "y") || strings.EqualFold(result, "yes"), nil
}

// Input prompts for free text, pre-filled with defaultValue.
func Input(label, defaultValue string) (string, error) {
	result, err := (&promptui.Prompt{Label: label, Default: defaultValue}).Run()
	return result, wrapError(err)
}

// InputWithValidation prompts for free text, rejecting input validate
// returns an error for.
func InputWithValidation(label string, validate func(string) error) (string, error) {
	result, err := (&promptui.Prompt{Label: label, Validate: validate}).Run()
	return result, wrapError(err)
}

// InputInt prompts for an integer, defaulting to defaultValue.
func InputInt(label string, defaultValue int) (int, error) {
	result, err := (&promptui.Prompt{
		Label:   label,
		Default: strconv.Itoa(defaultValue),
		Validate: func(input string) error {
			if _, err := strconv.Atoi(input); err != nil {
				return fmt.Errorf("must be a valid integer")
			}
			return nil
		},
	}).Run()
	if err != nil {
		return 0, wrapError(err)
	}
	value, _ := strconv.Atoi(result)
	return value, nil
}

// SelectString prompts the user to pick one of items, returning the choice.
func SelectString(label string, items []string) (string, error) {
	_, result, err := (&promptui.Select{Label: label, Items: items, Size: len(items)}).Run()
	return result, wrapError(err)
}
