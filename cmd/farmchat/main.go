// Command farmchat is an interactive terminal chat with the farming
// assistant. Type "exit" or "quit" to leave.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Brownie44l1/agriml-api/internal/config"
	"github.com/Brownie44l1/agriml-api/internal/llm"
	"github.com/Brownie44l1/agriml-api/internal/observability"
)

func main() {
	cfg, err := config.LoadLLM()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := observability.InitLogger(observability.LogConfig{Level: "warn", Format: "text"})

	cv := llm.NewConversation(llm.New(llm.Config(cfg.Chat), logger), llm.FarmingAssistantPrompt)
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Farming assistant. Type 'exit' to quit.")
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			return
		}
		text := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(text) {
		case "":
			continue
		case "exit", "quit":
			fmt.Println("Goodbye!")
			return
		}

		reply, err := cv.Send(context.Background(), text)
		if err != nil {
			logger.Error("chat failed", slog.String("error", err.Error()))
			continue
		}
		fmt.Printf("Bot: %s\n\n", reply)
	}
}
