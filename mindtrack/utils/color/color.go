// Package color styles terminal output for the mindtrack CLI.
package color

import (
	"github.com/fatih/color"
)

var (
	promptColor  = color.New(color.FgCyan, color.Bold)
	infoColor    = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	botColor     = color.New(color.FgHiMagenta, color.Bold)
	recColor     = color.New(color.FgHiBlue)
)

func Prompt(s string) string {
	return promptColor.Sprint(s)
}

func Info(s string) string {
	return infoColor.Sprint(s)
}

func Warning(s string) string {
	return warningColor.Sprint(s)
}

func Error(s string) string {
	return errorColor.Sprint(s)
}

func BotReply(s string) string {
	return botColor.Sprint(s)
}

func Recommendation(s string) string {
	return recColor.Sprint(s)
}

// Disable turns styling off, e.g. when output is piped.
func Disable() {
	color.NoColor = true
}
