package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-stream-tts/internal/doctor"
	"github.com/example/go-stream-tts/internal/engine"
	"github.com/example/go-stream-tts/internal/result"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the synthesis environment is usable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			res := doctor.Run(doctor.Config{
				DetectORT: func() (string, error) {
					return engine.DetectLibrary(cfg.Runtime.ORTLibraryPath)
				},
				ReadMemory: func() (result.MemoryStatus, error) {
					return result.ReadMemoryStatus(memoryThresholds(cfg.Memory))
				},
				ModelPath:   cfg.Paths.ModelPath,
				LexiconPath: cfg.Paths.LexiconPath,
				VoicesDir:   cfg.Paths.VoicesDir,
			}, cmd.OutOrStdout())

			if res.Failed() {
				return fmt.Errorf("%d check(s) failed", len(res.Failures()))
			}

			return nil
		},
	}
}
