package imageprocessing

import (
	"fmt"
	"log/slog"
	"time"
)

// CommandInvoker executes a sequence of commands on image data
type CommandInvoker struct {
	commands []Command
}

func NewCommandInvoker(commands []Command) *CommandInvoker {
	return &CommandInvoker{
		commands: commands,
	}
}

// Execute applies all commands in order, feeding each the previous output.
func (i *CommandInvoker) Execute(imageData []byte) ([]byte, error) {
	start := time.Now()

	if len(i.commands) == 0 {
		slog.Debug("no commands to execute, returning original image")
		return imageData, nil
	}

	currentData := imageData
	for idx, command := range i.commands {
		commandStart := time.Now()

		processedData, err := command.Execute(currentData)
		if err != nil {
			slog.Error("command execution failed",
				"index", idx,
				"command_name", command.Name(),
				"error", err,
				"input_size_bytes", len(currentData))
			return nil, fmt.Errorf("command %s (index %d) failed: %w", command.Name(), idx, err)
		}

		slog.Debug("command completed",
			"index", idx,
			"command_name", command.Name(),
			"duration_ms", time.Since(commandStart).Milliseconds(),
			"input_size_bytes", len(currentData),
			"output_size_bytes", len(processedData))

		currentData = processedData
	}

	slog.Debug("image processing pipeline completed",
		"total_duration_ms", time.Since(start).Milliseconds(),
		"command_count", len(i.commands),
		"final_size_bytes", len(currentData))

	return currentData, nil
}

// BuildCommands creates commands for configs from the registry.
func BuildCommands(registry *CommandRegistry, configs []CommandConfig) ([]Command, error) {
	commands := make([]Command, 0, len(configs))
	for i, config := range configs {
		command, err := registry.Create(config.Name, config.Params)
		if err != nil {
			return nil, fmt.Errorf("failed to create command at index %d (%s): %w", i, config.Name, err)
		}
		commands = append(commands, command)
	}
	return commands, nil
}

// ExecuteCommands builds configs from DefaultRegistry and runs them in order.
func ExecuteCommands(imageData []byte, configs []CommandConfig) ([]byte, error) {
	commands, err := BuildCommands(DefaultRegistry, configs)
	if err != nil {
		return nil, err
	}
	return NewCommandInvoker(commands).Execute(imageData)
}
