package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ponto/internal/cli"
	"github.com/Veraticus/ponto/internal/common"
	"github.com/Veraticus/ponto/internal/model"
	"github.com/Veraticus/ponto/internal/service"
	"github.com/Veraticus/ponto/internal/storage"
)

func employeesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "employees",
		Aliases: []string{"employee", "emp"},
		Short:   "Manage employees and their reference photos",
	}

	cmd.AddCommand(employeesListCmd())
	cmd.AddCommand(employeesAddCmd())
	cmd.AddCommand(employeesEnrollCmd())
	cmd.AddCommand(employeesDeactivateCmd())
	cmd.AddCommand(employeesImportLegacyCmd())

	return cmd
}

// withStorage opens storage for the duration of fn.
func withStorage(ctx context.Context, fn func(service.Storage) error) error {
	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close storage", "error", closeErr)
		}
	}()
	return fn(store)
}

func employeesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List employees",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withStorage(ctx, func(store service.Storage) error {
				employees, err := store.ListEmployees(ctx)
				if err != nil {
					return err
				}
				if len(employees) == 0 {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No employees yet. Add one with 'ponto employees add'."))
					return err
				}

				rows := make([][]string, 0, len(employees))
				for _, e := range employees {
					photos, err := store.ListEmployeeEnrollments(ctx, e.Name)
					if err != nil {
						return err
					}
					status := string(e.Status)
					if e.Status == model.EmployeeInactive {
						status = cli.SubtleStyle.Render(status)
					}
					rows = append(rows, []string{e.Name, status, fmt.Sprintf("%d", len(photos)), e.Email, e.Phone})
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"Name", "Status", "Photos", "Email", "Phone"}, rows))
				return err
			})
		},
	}
}

func employeesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add NAME [PHOTO...]",
		Short: "Add an employee, optionally with reference photos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			email, _ := cmd.Flags().GetString("email")
			phone, _ := cmd.Flags().GetString("phone")

			emp := &model.Employee{Name: model.CanonicalName(args[0]), Email: email, Phone: phone}
			return withStorage(ctx, func(store service.Storage) error {
				if err := store.CreateEmployee(ctx, emp); err != nil {
					if errors.Is(err, common.ErrDuplicateEntry) {
						return common.NewUserError(fmt.Sprintf("%s is already registered", emp.Name), err)
					}
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Added "+emp.Name))
				return enrollPhotos(cmd, store, emp.Name, args[1:])
			})
		},
	}

	cmd.Flags().String("email", "", "email address")
	cmd.Flags().String("phone", "", "phone number")

	return cmd
}

func employeesEnrollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enroll NAME PHOTO...",
		Short: "Register reference photos for an employee",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStorage(ctx, func(store service.Storage) error {
				return enrollPhotos(cmd, store, model.CanonicalName(args[0]), args[1:])
			})
		},
	}
}

func enrollPhotos(cmd *cobra.Command, store service.Storage, name string, photos []string) error {
	for _, photo := range photos {
		abs, err := filepath.Abs(photo)
		if err != nil {
			return err
		}
		if _, err := os.Stat(abs); err != nil {
			return common.NewUserError(fmt.Sprintf("Cannot open %s", photo), err)
		}
		if _, err := store.AddEnrollment(cmd.Context(), name, abs, model.SourceManual); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.NewUserError(fmt.Sprintf("%s is not registered; add them first", name), err)
			}
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Enrolled %s for %s", filepath.Base(abs), name)))
	}
	return nil
}

func employeesDeactivateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deactivate NAME",
		Short: "Stop matching an employee's photos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := model.CanonicalName(args[0])
			status := model.EmployeeInactive
			if reactivate, _ := cmd.Flags().GetBool("reactivate"); reactivate {
				status = model.EmployeeActive
			}
			return withStorage(ctx, func(store service.Storage) error {
				if err := store.SetEmployeeStatus(ctx, name, status); err != nil {
					if errors.Is(err, common.ErrNotFound) {
						return common.NewUserError(fmt.Sprintf("%s is not registered", name), err)
					}
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s is now %s", name, status)))
				return err
			})
		},
	}

	cmd.Flags().Bool("reactivate", false, "mark the employee active again")

	return cmd
}

func employeesImportLegacyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-legacy [funcionarios.json]",
		Short: "Import employees from the previous system",
		Long: `Import employees from the previous system.

With a funcionarios.json file, its employees and listed photos are imported.
Without it, the photo folder is scanned and each photo is assigned to the name
before the first underscore in its file name (Ana_1.jpg belongs to Ana).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			photoDir, _ := cmd.Flags().GetString("photos")
			photoDir, err := filepath.Abs(photoDir)
			if err != nil {
				return err
			}

			var employees []storage.LegacyEmployee
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return common.NewUserError(fmt.Sprintf("Cannot open %s", args[0]), err)
				}
				employees, err = storage.ParseLegacyRoster(f)
				_ = f.Close()
				if err != nil {
					return err
				}
			} else {
				employees, err = storage.ScanLegacyFolder(photoDir)
				if err != nil {
					return err
				}
			}

			return withStorage(ctx, func(store service.Storage) error {
				stats, err := store.ImportLegacy(ctx, employees, photoDir)
				if err != nil {
					return err
				}
				summary := fmt.Sprintf("Employees added: %d\nPhotos enrolled: %d\nSkipped: %d", stats.Employees, stats.Photos, stats.Skipped)
				_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Import Complete", summary))
				return err
			})
		},
	}

	cmd.Flags().String("photos", "funcionarios", "folder holding the legacy photos")

	return cmd
}
