package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"fieldhouse/internal/adapters/storage"
	"fieldhouse/internal/application/orchestrators"
	"fieldhouse/internal/config"
	"fieldhouse/internal/domain/member"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, _, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			v, err := storage.SchemaVersion(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create programs and sessions from a catalog YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			catalog, err := orchestrators.ParseCatalog(data)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, timed, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			stores := newStores(timed)
			res, err := orchestrators.ExecuteSeedCatalog(cmd.Context(), catalog, orchestrators.SeedCatalogDeps{
				ProgramStore:  stores.ProgramStore,
				ScheduleStore: stores.ScheduleStore,
			})
			if err != nil {
				return err
			}
			slog.Info("catalog_seeded", "programs", res.Programs, "schedules", res.Schedules, "skipped", res.Skipped)
			fmt.Fprintf(cmd.OutOrStdout(), "created %d programs, %d sessions; skipped %d existing\n",
				res.Programs, res.Schedules, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "catalog.yaml", "Catalog YAML file")
	return cmd
}

func importMembersCmd() *cobra.Command {
	var (
		file   string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "import-members",
		Short: "Create placeholder members from a roster CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, timed, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			stores := newStores(timed)
			res, err := orchestrators.ExecuteImportMembers(cmd.Context(), orchestrators.ImportMembersInput{
				Actor:  orchestrators.Actor{Role: member.RoleAdmin},
				Reader: f,
				DryRun: dryRun,
			}, orchestrators.ImportMembersDeps{
				MemberStore:     stores.MemberStore,
				ProgramStore:    stores.ProgramStore,
				EnrollmentStore: stores.EnrollmentStore,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range res.Errors {
				fmt.Fprintf(out, "row %d: %s\n", e.Row, e.Message)
			}
			for _, col := range res.Unknown {
				fmt.Fprintf(out, "ignored column %q\n", col)
			}
			verb := "created"
			if res.DryRun {
				verb = "would create"
			}
			fmt.Fprintf(out, "%d rows: %s %d, skipped %d, enrolled %d, failed %d\n",
				res.Total, verb, res.Created, res.Skipped, res.Enrolled, len(res.Errors))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Roster CSV file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate without writing")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
