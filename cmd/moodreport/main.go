package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/snarg/voxmood/internal/emotion"
	"github.com/snarg/voxmood/internal/report"
	"github.com/snarg/voxmood/internal/transcribe"
)

// moodreport runs the emotion pipeline without the server: read a transcript
// (or transcribe an audio file with -stt), classify, print the breakdown,
// optionally write PDF/XLSX.
func main() {
	in := flag.String("in", "-", "transcript file, - for stdin")
	stt := flag.Bool("stt", false, "treat input as an audio file and transcribe it first")
	whisperURL := flag.String("whisper-url", "http://localhost:8000/v1/audio/transcriptions", "whisper endpoint for -stt")
	whisperModel := flag.String("whisper-model", "Systran/faster-whisper-base.en", "whisper model for -stt")
	language := flag.String("lang", "en", "transcript language for -stt")
	pdfOut := flag.String("pdf", "", "write PDF report to this path")
	xlsxOut := flag.String("xlsx", "", "write XLSX export to this path")
	flag.Parse()

	var transcript string
	if *stt {
		if *in == "-" {
			fmt.Fprintln(os.Stderr, "-stt requires a file path, not stdin")
			os.Exit(1)
		}
		client := transcribe.NewWhisperClient(*whisperURL, *whisperModel, *language, 2*time.Minute)
		resp, err := client.Transcribe(context.Background(), *in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "transcribe: %v\n", err)
			os.Exit(1)
		}
		transcript = resp.Text
	} else {
		var data []byte
		var err error
		if *in == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(*in)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "read transcript: %v\n", err)
			os.Exit(1)
		}
		transcript = string(data)
	}

	pipeline := emotion.NewPipeline(emotion.NewVaderScorer())
	result := pipeline.Run(strings.TrimSpace(transcript))

	fmt.Printf("Dominant emotion: %s\n\n", result.Dominant)
	fmt.Println("Time      Emotion     Text")
	for _, span := range result.Timeline {
		fmt.Printf("%3d-%-4ds %-11s %s\n", span.Start, span.End, span.Emotion, span.Text)
	}
	if len(result.Histogram) > 0 {
		fmt.Println("\nHistogram:")
		seen := map[emotion.Label]bool{}
		for _, span := range result.Timeline {
			if seen[span.Emotion] {
				continue
			}
			seen[span.Emotion] = true
			fmt.Printf("  %-11s %d\n", span.Emotion, result.Histogram[span.Emotion])
		}
	}

	if *pdfOut != "" {
		f, err := os.Create(*pdfOut)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create pdf: %v\n", err)
			os.Exit(1)
		}
		if err := report.NewPDFRenderer().Render(f, result); err != nil {
			fmt.Fprintf(os.Stderr, "render pdf: %v\n", err)
			os.Exit(1)
		}
		f.Close()
		fmt.Printf("\nPDF written to %s\n", *pdfOut)
	}

	if *xlsxOut != "" {
		f, err := os.Create(*xlsxOut)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create xlsx: %v\n", err)
			os.Exit(1)
		}
		if err := report.NewXLSXExporter().Export(f, result); err != nil {
			fmt.Fprintf(os.Stderr, "export xlsx: %v\n", err)
			os.Exit(1)
		}
		f.Close()
		fmt.Printf("XLSX written to %s\n", *xlsxOut)
	}
}
