// package formatter renders resolved songs for terminal output and file
// export (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joenivl/top2000/internal/models"
)

// FormatSong renders one resolved song as a multi-line terminal card with
// release year, prior-edition positions, and fun facts.
func FormatSong(song *models.ResolvedSong) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("#%d: %s - %s", song.Position(), song.Artist(), song.Title()))
	if song.Year() > 0 {
		sb.WriteString(fmt.Sprintf(" (%d)", song.Year()))
	}
	sb.WriteString("\n")

	if len(song.History) > 0 {
		parts := make([]string, 0, len(song.History))
		for _, entry := range song.History {
			parts = append(parts, fmt.Sprintf("%d: #%d", entry.Year, entry.Position))
		}
		sb.WriteString("Previously: " + strings.Join(parts, ", ") + "\n")
	}

	for _, fact := range song.FunFacts {
		sb.WriteString("  * " + fact + "\n")
	}

	return sb.String()
}

// FormatUpcoming renders the upcoming window as numbered lines, soonest
// first.
func FormatUpcoming(songs []*models.ResolvedSong) string {
	if len(songs) == 0 {
		return "Nothing upcoming.\n"
	}

	var sb strings.Builder
	for _, song := range songs {
		sb.WriteString(fmt.Sprintf("#%d: %s - %s", song.Position(), song.Artist(), song.Title()))
		if song.Year() > 0 {
			sb.WriteString(fmt.Sprintf(" (%d)", song.Year()))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// ExportToCSV converts songs to CSV with columns: Position, Artist, Title, Year, CoverArtURL
func ExportToCSV(songs []*models.ResolvedSong) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Artist", "Title", "Year", "CoverArtURL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		year := ""
		if song.Year() > 0 {
			year = strconv.Itoa(song.Year())
		}
		record := []string{
			strconv.Itoa(song.Position()),
			song.Artist(),
			song.Title(),
			year,
			song.CoverArtURL(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the current song and upcoming window as a
// Markdown document.
func ExportToMarkdown(current *models.ResolvedSong, upcoming []*models.ResolvedSong) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Top 2000 Now Playing\n\n")

	if current != nil {
		buf.WriteString(fmt.Sprintf("## #%d: %s - %s\n\n", current.Position(), current.Artist(), current.Title()))
		if current.CoverArtURL() != "" {
			buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", current.CoverArtURL()))
		}
		if current.Year() > 0 {
			buf.WriteString(fmt.Sprintf("**Released**: %d\n\n", current.Year()))
		}
		if len(current.History) > 0 {
			buf.WriteString("| Edition | Position |\n|---|---|\n")
			for _, entry := range current.History {
				buf.WriteString(fmt.Sprintf("| %d | %d |\n", entry.Year, entry.Position))
			}
			buf.WriteString("\n")
		}
		for _, fact := range current.FunFacts {
			buf.WriteString("> " + fact + "\n\n")
		}
	}

	if len(upcoming) > 0 {
		buf.WriteString("## Upcoming\n\n")
		for _, song := range upcoming {
			buf.WriteString(fmt.Sprintf("- #%d: %s - %s\n", song.Position(), song.Artist(), song.Title()))
		}
	}

	return buf.Bytes()
}

// WriteCSVExport writes songs to a CSV file. Defaults to upcoming.csv.
func WriteCSVExport(songs []*models.ResolvedSong, filepath string) (string, error) {
	if filepath == "" {
		filepath = "upcoming.csv"
	}

	data, err := ExportToCSV(songs)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return filepath, nil
}
