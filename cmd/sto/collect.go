package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sto/internal/collect"
	"sto/internal/configs"
	"sto/internal/repositories"
	"sto/internal/savebd"
	"sto/internal/storage"
)

type collectFlags struct {
	form    string
	saveBD  string
	onlyNew bool
	store   bool
}

// newCollectCmd прогоняет конфиг button_json над сохранённым снимком формы.
// Удобно для отладки конфигов без браузера.
func newCollectCmd() *cobra.Command {
	flags := collectFlags{}
	cmd := &cobra.Command{
		Use:   "collect <button_json>",
		Short: "Собрать JSON формы по конфигу button_json",
		Example: `  sto collect shino --form form.json
  sto collect shino --form form.json --save-bd shino2 --only-new`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.form, "form", "", "JSON со снимком формы")
	cmd.Flags().StringVar(&flags.saveBD, "save-bd", "", "сохранить результат в базу по конфигу save_bd")
	cmd.Flags().BoolVar(&flags.onlyNew, "only-new", false, "перед сохранением удалить все заказы")
	cmd.Flags().BoolVar(&flags.store, "store", false, "записать результат в data/tmp")
	_ = cmd.MarkFlagRequired("form")
	return cmd
}

func runCollect(cmd *cobra.Command, name string, flags collectFlags) error {
	o, err := loadOpt(configFile)
	if err != nil {
		return err
	}

	loader := configs.NewLoader(o.SiteRoot)
	config, err := loader.ButtonConfig(name)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(flags.form)
	if err != nil {
		return err
	}
	form := collect.Form{}
	if err = json.Unmarshal(data, &form); err != nil {
		return fmt.Errorf("failed to parse form %s: %w", flags.form, err)
	}

	out, err := collect.Run(config, form)
	if err != nil {
		return err
	}

	if flags.saveBD == "" && !flags.store {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	var saver collect.Saver
	if flags.saveBD != "" {
		db, err := openDB(o)
		if err != nil {
			return err
		}
		defer func() {
			_ = db.Close()
		}()

		ledger, err := repositories.NewLedgerRepository(cmd.Context(), db)
		if err != nil {
			return err
		}
		saver = savebd.NewService(loader, ledger, savebd.NewInterpreter(), logger)
	}

	target := collect.Target{SaveBDConfig: flags.saveBD, OnlyNew: flags.onlyNew}
	outcome, err := collect.Dispatch(cmd.Context(), out, target, saver, storage.NewFiles(o.SiteRoot))
	if err != nil {
		return err
	}

	logger.Info("form collected",
		zap.String("config", name),
		zap.String("order_id", outcome.OrderID),
		zap.String("file", outcome.File),
	)
	return nil
}
