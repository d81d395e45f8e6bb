package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ftahirops/herakles/config"
)

func printConfigJSON(cfg config.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	os.Stdout.Write(data)
	fmt.Println()
	return nil
}
