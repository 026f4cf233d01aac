package utils

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/meysamhadeli/assemble/constants/lipgloss"
)

// ErrInputClosed is returned when the input stream ends before an answer was given.
var ErrInputClosed = errors.New("input closed")

// InputPrompt prints label and reads one trimmed line.
func InputPrompt(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, lipgloss.BlueSky.Render(label+" > "))

	userInput, err := reader.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			if userInput == "" {
				return "", ErrInputClosed
			}
			return strings.TrimSpace(userInput), nil
		}
		return "", fmt.Errorf("error reading input: %w", err)
	}

	return strings.TrimSpace(userInput), nil
}

// InputPromptWithContext is InputPrompt with context cancellation support
func InputPromptWithContext(ctx context.Context, reader *bufio.Reader, out io.Writer, label string) (string, error) {
	type answer struct {
		input string
		err   error
	}
	answerChan := make(chan answer, 1)

	go func() {
		input, err := InputPrompt(reader, out, label)
		answerChan <- answer{input: input, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(out) // Print newline for clean exit
		return "", ctx.Err()
	case a := <-answerChan:
		return a.input, a.err
	}
}

// ConfirmPrompt asks a yes/no question; anything but "y" or "yes" is a no.
func ConfirmPrompt(ctx context.Context, question string, reader *bufio.Reader, out io.Writer) (bool, error) {
	response, err := InputPromptWithContext(ctx, reader, out, question+" (y/N)")
	if err != nil {
		return false, err
	}
	response = strings.ToLower(response)
	return response == "y" || response == "yes", nil
}

// ChoicePrompt shows numbered options and returns the index of the chosen one. An empty answer picks the default.
func ChoicePrompt(ctx context.Context, question string, options []string, defaultIndex int, reader *bufio.Reader, out io.Writer) (int, error) {
	fmt.Fprintln(out, question)
	for i, option := range options {
		marker := " "
		if i == defaultIndex {
			marker = "*"
		}
		fmt.Fprintf(out, " %s %d) %s\n", marker, i+1, option)
	}

	for {
		response, err := InputPromptWithContext(ctx, reader, out, fmt.Sprintf("Choose 1-%d", len(options)))
		if err != nil {
			return 0, err
		}
		if response == "" {
			return defaultIndex, nil
		}

		var choice int
		if _, err := fmt.Sscanf(response, "%d", &choice); err == nil && choice >= 1 && choice <= len(options) {
			return choice - 1, nil
		}
		fmt.Fprintln(out, lipgloss.Yellow.Render(fmt.Sprintf("Please enter a number between 1 and %d.", len(options))))
	}
}
