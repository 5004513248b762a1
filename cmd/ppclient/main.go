package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alexflint/go-arg"
	pp "github.com/cloudflare/pp-go"
	"github.com/cloudflare/pp-go/pool"
)

type generateCmd struct {
	Count int    `arg:"-n,--count" default:"10" help:"number of token construction attempts"`
	Pool  string `arg:"--pool,required" help:"file the token pool is written to"`
}

type signApplyCmd struct {
	Pool   string `arg:"--pool,required" help:"token pool file"`
	Points string `arg:"--points,required" help:"JSON array of base64 SEC1 points signed by the issuer"`
}

type redeemCmd struct {
	Pool string `arg:"--pool,required" help:"token pool file"`
	Host string `arg:"--host,required" help:"host the redemption is bound to"`
	Path string `arg:"--path" help:"path the redemption is bound to"`
}

// command-line arguments
var args struct {
	Config      int  `arg:"--config" default:"1" help:"protocol configuration version"`
	NoH2CParams bool `arg:"--no-h2c-params" help:"omit hash-to-curve parameters from redemption headers"`
	Verbose     bool `arg:"-v,--verbose" help:"log debug output"`

	Generate  *generateCmd  `arg:"subcommand:generate" help:"create blinded tokens and print the issue request"`
	SignApply *signApplyCmd `arg:"subcommand:sign-apply" help:"store issuer signed points into the pool"`
	Redeem    *redeemCmd    `arg:"subcommand:redeem" help:"consume one token and print its redemption header"`
}

func main() {
	p := arg.MustParse(&args)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand")
	}

	level := slog.LevelInfo
	if args.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := pp.NewConfig(args.Config)
	if err != nil {
		logger.Error("invalid configuration", "version", args.Config, "error", err)
		os.Exit(1)
	}
	cfg = cfg.WithSendH2CParams(!args.NoH2CParams)

	client, err := pp.NewClient(cfg, nil, logger)
	if err != nil {
		logger.Error("creating client", "error", err)
		os.Exit(1)
	}

	switch {
	case args.Generate != nil:
		err = generate(client, logger, os.Stdout, args.Generate)
	case args.SignApply != nil:
		err = signApply(client, logger, args.SignApply)
	case args.Redeem != nil:
		err = redeem(client, logger, os.Stdout, args.Redeem)
	}
	if err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func generate(client *pp.Client, logger *slog.Logger, out io.Writer, cmd *generateCmd) error {
	tokens, err := client.GenerateNewTokens(cmd.Count)
	if err != nil {
		return err
	}
	logger.Debug("generated tokens", "requested", cmd.Count, "generated", len(tokens))

	request, err := client.BuildIssueRequest(tokens)
	if err != nil {
		return err
	}
	if err := writePool(client, cmd.Pool, tokens); err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, request)
	return err
}

func signApply(client *pp.Client, logger *slog.Logger, cmd *signApplyCmd) error {
	tokens, err := readPool(client, cmd.Pool)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(cmd.Points)
	if err != nil {
		return err
	}
	var points [][]byte
	if err := json.Unmarshal(raw, &points); err != nil {
		return fmt.Errorf("decoding signed points: %w", err)
	}
	if err := client.ApplySignedPoints(tokens, points); err != nil {
		return err
	}
	logger.Debug("applied signed points", "tokens", len(tokens))
	return writePool(client, cmd.Pool, tokens)
}

func redeem(client *pp.Client, logger *slog.Logger, out io.Writer, cmd *redeemCmd) error {
	tokens, err := readPool(client, cmd.Pool)
	if err != nil {
		return err
	}
	store := pool.NewMemoryStore()
	store.Add(tokens...)

	token, err := store.Pop()
	if err != nil {
		return err
	}
	header, err := client.BuildRedeemHeader(token, cmd.Host, cmd.Path)
	if err != nil {
		return err
	}
	if err := writePool(client, cmd.Pool, store.Snapshot()); err != nil {
		return err
	}
	logger.Debug("redeemed token", "host", cmd.Host, "path", cmd.Path, "remaining", store.Len())
	_, err = fmt.Fprintln(out, header)
	return err
}

func readPool(client *pp.Client, path string) ([]pp.Token, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return pool.Unmarshal(client.Config(), raw)
}

func writePool(client *pp.Client, path string, tokens []pp.Token) error {
	enc, err := pool.Marshal(client.Config(), tokens)
	if err != nil {
		return err
	}
	return os.WriteFile(path, enc, 0600)
}
