// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"markpress/internal/diffview"
	"markpress/internal/markdown"
	"markpress/internal/theme"
)

var (
	renderTheme    string
	renderDiffView string
)

var renderCmd = &cobra.Command{
	Use:   "render <file.md>",
	Short: "Render a markdown file to HTML on stdout",
	Long: `Render reads a markdown file, strips its front matter, and writes the
HTML fragment the site would serve for it. Use "-" to read stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := theme.Parse(renderTheme)
		if err != nil {
			return err
		}

		src, err := readSource(args[0])
		if err != nil {
			return err
		}

		_, body, err := markdown.ParseFrontMatter(src)
		if err != nil {
			return fmt.Errorf("front matter: %w", err)
		}

		html, err := markdown.NewRenderer().Render(body, markdown.Options{
			Theme:    t,
			DiffView: diffview.ParseView(renderDiffView),
		})
		if err != nil {
			return err
		}
		_, err = io.WriteString(cmd.OutOrStdout(), html)
		return err
	},
}

func readSource(path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), nil
}

func init() {
	renderCmd.Flags().StringVar(&renderTheme, "theme", string(theme.Default), "theme: dark, light, tan or cloud")
	renderCmd.Flags().StringVar(&renderDiffView, "diff-view", string(diffview.Unified), "diff layout: unified or split")
}
