package transcript

import (
	"regexp"
	"strings"

	"redflag/internal/domain/models"
)

// messageLine matches the header of an exported chat message:
//
//	13/05/2023, 10:31 pm - Rahul: Where are you?
//
// Lines in the same shape but without the "Sender: " part are system
// notices (encryption banner, group changes) and are skipped.
var messageLine = regexp.MustCompile(
	`^(\d{1,2}/\d{1,2}/\d{2,4}),? (\d{1,2}:\d{2})(?:\s?([AaPp]\.?[Mm]\.?))? - ([^:]+): (.*)$`)

var systemLine = regexp.MustCompile(
	`^(\d{1,2}/\d{1,2}/\d{2,4}),? (\d{1,2}:\d{2})(?:\s?([AaPp]\.?[Mm]\.?))? - [^:]*$`)

// Parse converts a raw chat export into a message sequence. Lines that do
// not start a new message are treated as continuations of the previous one.
// Unrecognized leading noise is ignored, so a partial or malformed export
// still produces a usable (possibly empty) result.
func Parse(raw string) []models.ChatMessage {
	messages := []models.ChatMessage{}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		if m := messageLine.FindStringSubmatch(line); m != nil {
			messages = append(messages, models.ChatMessage{
				Date:   m[1],
				Sender: strings.TrimSpace(m[4]),
				Text:   m[5],
			})
			continue
		}

		if systemLine.MatchString(line) {
			continue
		}

		// continuation of a multi-line message
		if len(messages) > 0 {
			last := &messages[len(messages)-1]
			last.Text += "\n" + line
		}
	}

	return messages
}

// Flatten joins the message texts back into one block of text for scoring.
// Used when a caller uploads a structured message list without raw text.
func Flatten(messages []models.ChatMessage) string {
	parts := make([]string, len(messages))
	for i, m := range messages {
		parts[i] = m.Text
	}
	return strings.Join(parts, "\n")
}
