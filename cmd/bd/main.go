package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"brokerdesk/internal/app"
	"brokerdesk/internal/engine"
)

var rootCmd = &cobra.Command{
	Use:   "bd",
	Short: "Brokerdesk CLI",
	Long: `Brokerdesk is the back office of a real-estate brokerage.
- Advisors list properties, keep their owners (clients) and book visits (schedules).
- Managers see every advisor's records; advisors see their own.
- The calendar buckets visits per day; list views search, filter and sort.
- Every change lands in the activity log, view it with 'bd log tail'.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("BROKERDESK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("advisor-id", "", "acting advisor (defaults to the workspace .env)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("advisor-id", rootCmd.PersistentFlags().Lookup("advisor-id"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(advisorCmd())
	rootCmd.AddCommand(keyCmd())
	rootCmd.AddCommand(clientCmd())
	rootCmd.AddCommand(propertyCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func initCmd() *cobra.Command {
	var office, id, name string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create brokerdesk.yml and register the first manager",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := app.Init(cmd.Context(), viper.GetString("workspace"), office, id, name)
			if err != nil {
				return err
			}
			defer w.Close()
			if viper.GetBool("json") {
				return printJSON(map[string]string{"office": w.Config.Office.Name, "manager_id": id})
			}
			fmt.Printf("Workspace ready for %s; acting as %s\n", w.Config.Office.Name, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&office, "office", "", "office name (defaults to the directory name)")
	cmd.Flags().StringVar(&id, "manager-id", "", "id of the first manager")
	cmd.Flags().StringVar(&name, "manager-name", "", "name of the first manager")
	_ = cmd.MarkFlagRequired("manager-id")
	_ = cmd.MarkFlagRequired("manager-name")
	return cmd
}

// --- helpers ---

func withWorkspace(ctx context.Context, fn func(context.Context, *app.Workspace) error) error {
	w, err := app.Open(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer w.Close()
	return fn(ctx, w)
}

// withEngine opens the workspace and resolves the acting advisor.
func withEngine(ctx context.Context, fn func(context.Context, engine.Engine, string) error) error {
	return withWorkspace(ctx, func(ctx context.Context, w *app.Workspace) error {
		actor, err := app.ResolveAdvisor(ctx, w, viper.GetString("advisor-id"))
		if err != nil {
			return err
		}
		return fn(ctx, w.Engine(), actor)
	})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
