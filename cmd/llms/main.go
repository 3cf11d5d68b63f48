// Command llms converts a single document to llms.txt from the command line,
// without going through the HTTP API. Useful for local batch work and for
// inspecting analyzer output on a file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mfpereira/llmstxt-api/internal/analyzer"
	"github.com/mfpereira/llmstxt-api/internal/converter"
	"github.com/mfpereira/llmstxt-api/internal/tokencount"
)

func main() {
	var (
		filePath = flag.String("file", "", "path to the document to convert (pdf, txt, md, html)")
		output   = flag.String("output", "", "output path for the llms.txt result (default: stdout)")
		profile  = flag.String("profile", "llms-full", "conversion profile: llms, llms-min, llms-ctx, llms-tables, llms-raw, llms-full")
		model    = flag.String("model", "gpt-3.5-turbo", "model used for token accounting")
		analyze  = flag.Bool("analyze", false, "print a token budget report after converting")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	if *filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	conv := converter.NewLocalConverter(converter.LocalConfig{Logger: logger})
	result, err := conv.Convert(context.Background(), converter.Request{
		FilePath:      *filePath,
		Profile:       *profile,
		ExportFormats: []string{"llms"},
	})
	if err != nil {
		logger.Fatalf("conversion failed: %v", err)
	}

	content := result.Formats["llms"]
	if *output != "" {
		if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
			logger.Fatalf("failed creating output directory: %v", err)
		}
		if err := os.WriteFile(*output, []byte(content), 0o644); err != nil {
			logger.Fatalf("failed writing output: %v", err)
		}
		logger.Printf("wrote %d bytes to %s", len(content), *output)
	} else {
		fmt.Println(content)
	}

	if !*analyze {
		return
	}

	counter := tokencount.New(logger)
	tokens := counter.Count(content, *model)
	fmt.Fprintf(os.Stderr, "\ntokens (%s): %d\n", *model, tokens)

	docAnalyzer := analyzer.New(*model, logger)
	analysis, err := docAnalyzer.AnalyzeDocument(content)
	if err != nil {
		logger.Fatalf("analysis failed: %v", err)
	}
	fmt.Fprintln(os.Stderr, strings.TrimSpace(docAnalyzer.RecommendationsText(analysis)))
}
