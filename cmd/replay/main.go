// Command replay reprocesses captured feed posts through the parser and
// decision engine against in-memory state, printing what each post would
// have done. Nothing is delivered and nothing durable is touched.
//
// Input is JSON lines, one post per line:
//
//	{"feed":"early100xgems","text":"..."}
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gemwatch/internal/domain"
	"gemwatch/internal/engine"
	"gemwatch/internal/feedparse"
	"gemwatch/internal/storage"
	"gemwatch/internal/storage/memory"
)

type inputPost struct {
	Feed string `json:"feed"`
	Text string `json:"text"`
}

type decision struct {
	Line     int    `json:"line"`
	Feed     string `json:"feed"`
	TokenID  string `json:"token_id,omitempty"`
	Outcome  string `json:"outcome"`
	OldCap   int64  `json:"old_cap,omitempty"`
	NewCap   int64  `json:"new_cap,omitempty"`
	Notified bool   `json:"notified"`
}

func main() {
	// Parse flags
	inputPath := flag.String("input", "", "JSON-lines file of captured posts (required)")
	policyName := flag.String("policy", engine.DefaultPolicyName, "Gating policy: second-update or threshold")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[replay] ", log.LstdFlags)

	if *inputPath == "" {
		logger.Fatal("--input is required")
	}

	policy, err := engine.NewPolicy(*policyName)
	if err != nil {
		logger.Fatalf("resolve policy: %v", err)
	}

	file, err := os.Open(*inputPath)
	if err != nil {
		logger.Fatalf("open input: %v", err)
	}
	defer file.Close()

	ctx := context.Background()
	parsers := feedparse.NewRegistry()
	tokens := memory.NewTokenStore()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}

		var post inputPost
		if err := json.Unmarshal(scanner.Bytes(), &post); err != nil {
			logger.Printf("line %d: bad input: %v", line, err)
			continue
		}

		d := process(ctx, parsers, policy, tokens, line, post)
		printDecision(d, *outputJSON)
	}
	if err := scanner.Err(); err != nil {
		logger.Fatalf("read input: %v", err)
	}
}

func process(ctx context.Context, parsers *feedparse.Registry, policy engine.Policy, tokens storage.TokenStore, line int, post inputPost) decision {
	d := decision{Line: line, Feed: post.Feed}

	parser, ok := parsers.ForFeed(domain.Feed(post.Feed))
	if !ok {
		d.Outcome = "unknown_feed"
		return d
	}

	u, err := parser.Parse(post.Text)
	if err != nil {
		d.Outcome = "no_parse"
		return d
	}
	d.TokenID = u.TokenID

	prior, err := tokens.GetRecord(ctx, u.TokenID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		d.Outcome = "error: " + err.Error()
		return d
	}
	priorUpdates := 0
	if prior != nil {
		if priorUpdates, err = tokens.CountUpdates(ctx, u.TokenID); err != nil {
			d.Outcome = "error: " + err.Error()
			return d
		}
	}

	mutation, notification := policy.Decide(u, prior, priorUpdates, time.Now().UnixMilli())
	if mutation.Op == domain.OpNone {
		d.Outcome = "unchanged"
		return d
	}

	if err := tokens.ApplyMutation(ctx, &mutation); err != nil {
		d.Outcome = "error: " + err.Error()
		return d
	}

	if mutation.Event != nil {
		d.OldCap = mutation.Event.OldCap
		d.NewCap = mutation.Event.NewCap
	}
	d.Notified = notification != nil
	switch mutation.Op {
	case domain.OpInsert:
		d.Outcome = "new_token"
	default:
		d.Outcome = string(mutation.Event.ChangeType)
	}
	return d
}

func printDecision(d decision, asJSON bool) {
	if asJSON {
		data, _ := json.Marshal(d)
		fmt.Println(string(data))
		return
	}

	notified := ""
	if d.Notified {
		notified = " [notify]"
	}
	switch {
	case d.TokenID == "":
		fmt.Printf("line %-4d %-20s %s\n", d.Line, d.Feed, d.Outcome)
	default:
		fmt.Printf("line %-4d %-20s %-16s %s $%d -> $%d%s\n", d.Line, d.Feed, d.Outcome, d.TokenID, d.OldCap, d.NewCap, notified)
	}
}
