package server

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	minCodeLength     = 3
	maxCodeLength     = 12
	maxNicknameLength = 20
	maxTeamNameLength = 32
	maxPromptLength   = 500
	maxChoiceLength   = 140
	maxChoices        = 8
)

// validateCode checks a human-typed session code: letters, digits and
// dashes only. The engine uppercases it afterwards.
func validateCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if len(code) < minCodeLength || len(code) > maxCodeLength {
		return "", fmt.Errorf("code must be %d-%d characters", minCodeLength, maxCodeLength)
	}
	for _, r := range code {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' {
			return "", errors.New("code may contain only letters, digits and dashes")
		}
	}
	return code, nil
}

func validateNickname(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("nickname is required")
	}
	if len(name) > maxNicknameLength {
		return "", fmt.Errorf("nickname must be at most %d characters", maxNicknameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", errors.New("nickname contains invalid characters")
		}
	}
	return name, nil
}

func validateTeamName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("team name is required")
	}
	if len(name) > maxTeamNameLength {
		return "", fmt.Errorf("team name must be at most %d characters", maxTeamNameLength)
	}
	return name, nil
}

func validateQuestion(prompt string, choices []string) error {
	if strings.TrimSpace(prompt) == "" {
		return errors.New("prompt is required")
	}
	if len(prompt) > maxPromptLength {
		return fmt.Errorf("prompt must be at most %d characters", maxPromptLength)
	}
	if len(choices) < 2 || len(choices) > maxChoices {
		return fmt.Errorf("questions need 2-%d choices", maxChoices)
	}
	for _, choice := range choices {
		if strings.TrimSpace(choice) == "" {
			return errors.New("choices must not be empty")
		}
		if len(choice) > maxChoiceLength {
			return fmt.Errorf("choices must be at most %d characters", maxChoiceLength)
		}
	}
	return nil
}
