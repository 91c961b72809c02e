package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"daisy/config"
	"daisy/crawler"
	"daisy/log"
	"daisy/report"
	"daisy/store"
)

func main() {
	var configPath string
	var token string
	var enableBrowser bool

	rootCmd := &cobra.Command{
		Use:           "daisy",
		Short:         "Fetch, normalize and store Naver blog posts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config yaml")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Naver session token")
	rootCmd.PersistentFlags().BoolVar(&enableBrowser, "browser", false, "allow the browser strategy")

	fetchCmd := &cobra.Command{
		Use:   "fetch <blog url>",
		Short: "Crawl a blog and merge the posts into the local database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, args[0], configPath, token, enableBrowser)
		},
	}

	postsCmd := &cobra.Command{
		Use:   "posts <blog url>",
		Short: "List the posts saved for a blog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPosts(cmd, args[0], configPath)
		},
	}

	reportCmd := &cobra.Command{
		Use:   "report <blog url>",
		Short: "Print the saved posts of a blog as one text blob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, args[0], configPath)
		},
	}

	rootCmd.AddCommand(fetchCmd, postsCmd, reportCmd)

	if err := rootCmd.Execute(); err != nil {
		var invalidUrl *crawler.InvalidUrlError
		if errors.As(err, &invalidUrl) {
			fmt.Fprintln(os.Stderr, invalidUrl.Error())
		} else {
			log.Error().Err(err).Msg("Command failed")
		}
		os.Exit(1)
	}
}

func runFetch(cmd *cobra.Command, blogURL, configPath, token string, enableBrowser bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if enableBrowser {
		cfg.EnableBrowser = true
	}

	pipeline, err := crawler.NewPipeline(blogURL, token, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	outcome := pipeline.Run(ctx, crawler.NewZeroLogger())
	if !outcome.Succeeded {
		return fmt.Errorf("%s", outcome.Message)
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	if err := db.EnsureBlog(ctx, pipeline.BlogID); err != nil {
		return err
	}
	summary, err := db.Merge(ctx, pipeline.BlogID, outcome.Posts)
	if err != nil {
		return err
	}

	log.Info().
		Str("blog_id", pipeline.BlogID).
		Str("strategy", outcome.Strategy).
		Int("inserted", summary.Inserted).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Int("rejected", summary.Rejected).
		Int("failed_ids", len(outcome.FailedIDs)).
		Msg("Fetch finished")
	fmt.Println(outcome.Message)
	return nil
}

func runPosts(cmd *cobra.Command, blogURL, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	blogID, err := crawler.ExtractBlogID(blogURL)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	posts, err := db.Posts(cmd.Context(), blogID)
	if err != nil {
		return err
	}
	for _, post := range posts {
		visibility := "public"
		if post.IsPrivate {
			visibility = "private"
		}
		fmt.Printf("%s\t%s\t%s\t%s\n", post.ExternalID, post.PublishedAt, visibility, post.Title)
	}
	return nil
}

func runReport(cmd *cobra.Command, blogURL, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	blogID, err := crawler.ExtractBlogID(blogURL)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	stored, err := db.Posts(cmd.Context(), blogID)
	if err != nil {
		return err
	}
	records := make([]crawler.PostRecord, 0, len(stored))
	for _, post := range stored {
		records = append(records, crawler.PostRecord{
			ExternalID:  post.ExternalID,
			Title:       post.Title,
			Body:        post.Body,
			PublishedAt: post.PublishedAt,
			IsPrivate:   post.IsPrivate,
			URL:         post.URL,
			Source:      post.Source,
		})
	}
	fmt.Println(report.BuildBlob(records))
	return nil
}
