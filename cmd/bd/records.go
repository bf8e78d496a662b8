package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"brokerdesk/internal/app"
	"brokerdesk/internal/domain"
	"brokerdesk/internal/engine"
	"brokerdesk/internal/views"
)

func advisorCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "advisor", Short: "Manage advisors"}
	cmd.AddCommand(advisorCreateCmd())
	cmd.AddCommand(advisorListCmd())
	cmd.AddCommand(advisorUseCmd())
	return cmd
}

func advisorCreateCmd() *cobra.Command {
	var opts engine.AdvisorCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create advisor (needs advisor.manage)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				opts.ActorID = actor
				a, err := e.CreateAdvisor(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "advisor id (generated when empty)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email")
	cmd.Flags().StringVar(&opts.Role, "role", domain.RoleAdvisor, "advisor or manager")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func advisorListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List advisors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				items, err := e.ListAdvisors(ctx, actor)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Role", "Email"})
				for _, a := range items {
					tw.AppendRow(table.Row{a.ID, a.Name, a.Role, a.Email})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func advisorUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <advisor-id>",
		Short: "Set the default advisor for this workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, w *app.Workspace) error {
				id, err := app.ResolveAdvisor(ctx, w, args[0])
				if err != nil {
					return err
				}
				if err := app.SetEnvValue(filepath.Join(w.Dir, ".env"), app.EnvAdvisorKey, id); err != nil {
					return err
				}
				fmt.Printf("Acting as %s\n", id)
				return nil
			})
		},
	}
}

func keyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "key", Short: "Manage API keys"}
	cmd.AddCommand(keyCreateCmd())
	cmd.AddCommand(keyListCmd())
	cmd.AddCommand(keyRevokeCmd())
	return cmd
}

func keyCreateCmd() *cobra.Command {
	var advisorID, name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue an API key; the key is shown once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				key, plain, err := e.CreateAPIKey(ctx, actor, advisorID, name)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]string{"id": key.ID, "advisor_id": key.AdvisorID, "key": plain})
				}
				fmt.Printf("API key %s for %s:\n%s\n", key.ID, key.AdvisorID, plain)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&advisorID, "for", "", "advisor receiving the key (defaults to the acting advisor)")
	cmd.Flags().StringVar(&name, "name", "", "label")
	return cmd
}

func keyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				keys, err := e.ListAPIKeys(ctx, actor)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Advisor", "Name", "Created"})
				for _, k := range keys {
					tw.AppendRow(table.Row{k.ID, k.AdvisorID, k.Name, k.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func keyRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <key-id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				if err := e.RevokeAPIKey(ctx, actor, args[0]); err != nil {
					return err
				}
				fmt.Printf("Revoked %s\n", args[0])
				return nil
			})
		},
	}
}

func clientCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "client", Short: "Manage clients (property owners)"}
	cmd.AddCommand(clientCreateCmd())
	cmd.AddCommand(clientGetCmd())
	cmd.AddCommand(clientListCmd())
	return cmd
}

func clientCreateCmd() *cobra.Command {
	var opts engine.ClientCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create client",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				opts.ActorID = actor
				c, err := e.CreateClient(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "first name")
	cmd.Flags().StringVar(&opts.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&opts.NationalID, "national-id", "", "national id (unique)")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "phone")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email")
	cmd.Flags().StringVar(&opts.AdvisorID, "advisor", "", "assign to another advisor (managers)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("national-id")
	return cmd
}

func clientGetCmd() *cobra.Command {
	var nationalID string
	cmd := &cobra.Command{
		Use:   "get [client-id]",
		Short: "Show a client with owned properties",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				var (
					c   domain.Client
					err error
				)
				switch {
				case nationalID != "":
					c, err = e.FindClientByNationalID(ctx, actor, nationalID)
				case len(args) == 1:
					c, err = e.GetClient(ctx, actor, args[0])
				default:
					return fmt.Errorf("client id or --national-id required")
				}
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&nationalID, "national-id", "", "look up by national id")
	return cmd
}

func clientListCmd() *cobra.Command {
	var opts views.ClientOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search and sort clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				items, err := e.ListClients(ctx, actor, opts)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "National ID", "Phone", "Properties"})
				for _, c := range items {
					tw.AppendRow(table.Row{c.ID, c.FullName(), c.NationalID, c.Phone, len(c.Properties)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&opts.Search, "search", "q", "", "search name, national id or owned properties")
	cmd.Flags().StringVar(&opts.SortBy, "sort", views.ClientSortName, "name or properties")
	return cmd
}

func propertyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "property", Short: "Manage property listings"}
	cmd.AddCommand(propertyCreateCmd())
	cmd.AddCommand(propertyUpdateCmd())
	cmd.AddCommand(propertyGetCmd())
	cmd.AddCommand(propertyListCmd())
	cmd.AddCommand(propertyStatsCmd())
	return cmd
}

type propertyFlags struct {
	title, description, address, status, propertyType, offerType, owner, image, period string
	price, lat, lng, area                                                            float64
	bedrooms, bathrooms                                                               int
	furnished                                                                         bool
}

func (f *propertyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "title")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().StringVar(&f.address, "address", "", "address")
	cmd.Flags().StringVar(&f.status, "status", "", "available, reserved, sold or rented")
	cmd.Flags().StringVar(&f.propertyType, "type", "", "property type, e.g. house")
	cmd.Flags().StringVar(&f.offerType, "offer", "", "offer type, e.g. sale or rent")
	cmd.Flags().StringVar(&f.owner, "owner", "", "owner client id")
	cmd.Flags().StringVar(&f.image, "image-url", "", "image URL")
	cmd.Flags().StringVar(&f.period, "period", "", "rent period: monthly, yearly or once")
	cmd.Flags().Float64Var(&f.price, "price", 0, "price")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&f.lng, "lng", 0, "longitude")
	cmd.Flags().Float64Var(&f.area, "area", 0, "area in square meters")
	cmd.Flags().IntVar(&f.bedrooms, "bedrooms", 0, "bedrooms")
	cmd.Flags().IntVar(&f.bathrooms, "bathrooms", 0, "bathrooms")
	cmd.Flags().BoolVar(&f.furnished, "furnished", false, "furnished")
}

// details returns nil when no detail flag was given.
func (f *propertyFlags) details(cmd *cobra.Command) *domain.PropertyDetails {
	changed := false
	d := &domain.PropertyDetails{}
	if cmd.Flags().Changed("price") {
		d.Price, changed = &f.price, true
	}
	if cmd.Flags().Changed("area") {
		d.AreaSqm, changed = &f.area, true
	}
	if cmd.Flags().Changed("bedrooms") {
		d.Bedrooms, changed = &f.bedrooms, true
	}
	if cmd.Flags().Changed("bathrooms") {
		d.Bathrooms, changed = &f.bathrooms, true
	}
	if cmd.Flags().Changed("furnished") {
		d.IsFurnished, changed = f.furnished, true
	}
	if cmd.Flags().Changed("period") {
		d.Period, changed = f.period, true
	}
	if !changed {
		return nil
	}
	return d
}

func changedFloat(cmd *cobra.Command, name string, v *float64) *float64 {
	if cmd.Flags().Changed(name) {
		return v
	}
	return nil
}

func changedString(cmd *cobra.Command, name string, v *string) *string {
	if cmd.Flags().Changed(name) {
		return v
	}
	return nil
}

func propertyCreateCmd() *cobra.Command {
	var f propertyFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a listing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				p, err := e.CreateProperty(ctx, engine.PropertyCreateOptions{
					ActorID:      actor,
					Title:        f.title,
					Description:  f.description,
					Address:      f.address,
					Latitude:     changedFloat(cmd, "lat", &f.lat),
					Longitude:    changedFloat(cmd, "lng", &f.lng),
					Status:       f.status,
					PropertyType: f.propertyType,
					OfferType:    f.offerType,
					OwnerID:      optionalString(f.owner),
					ImageURL:     f.image,
					Details:      f.details(cmd),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func propertyUpdateCmd() *cobra.Command {
	var f propertyFlags
	var clearOwner bool
	cmd := &cobra.Command{
		Use:   "update <property-id>",
		Short: "Update a listing; only given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				p, err := e.UpdateProperty(ctx, engine.PropertyUpdateOptions{
					ActorID:      actor,
					ID:           args[0],
					Title:        changedString(cmd, "title", &f.title),
					Description:  changedString(cmd, "description", &f.description),
					Address:      changedString(cmd, "address", &f.address),
					Latitude:     changedFloat(cmd, "lat", &f.lat),
					Longitude:    changedFloat(cmd, "lng", &f.lng),
					Status:       changedString(cmd, "status", &f.status),
					PropertyType: changedString(cmd, "type", &f.propertyType),
					OfferType:    changedString(cmd, "offer", &f.offerType),
					OwnerID:      changedString(cmd, "owner", &f.owner),
					ClearOwner:   clearOwner,
					ImageURL:     changedString(cmd, "image-url", &f.image),
					Details:      f.details(cmd),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&clearOwner, "clear-owner", false, "detach the owner")
	return cmd
}

func propertyGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <property-id>",
		Short: "Show a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				p, err := e.GetProperty(ctx, actor, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
}

func propertyListCmd() *cobra.Command {
	var opts views.PropertyOptions
	var minPrice, maxPrice float64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search, filter and sort listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.MinPrice = changedFloat(cmd, "min-price", &minPrice)
			opts.MaxPrice = changedFloat(cmd, "max-price", &maxPrice)
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				items, err := e.ListProperties(ctx, actor, opts)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Price", "Address"})
				for _, p := range items {
					tw.AppendRow(table.Row{p.ID, p.Title, propertyBadge(p.Status), formatPrice(p.Price()), p.Address})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&opts.Search, "search", "q", "", "search title, address or description")
	cmd.Flags().StringVar(&opts.Status, "status", "", "status filter")
	cmd.Flags().Float64Var(&minPrice, "min-price", 0, "minimum price")
	cmd.Flags().Float64Var(&maxPrice, "max-price", 0, "maximum price")
	cmd.Flags().StringVar(&opts.SortBy, "sort", views.PropertySortCreated, "created_at, title or price")
	cmd.Flags().StringVar(&opts.Direction, "dir", "", "asc or desc")
	return cmd
}

func propertyStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Listing counts per status and property type",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, actor string) error {
				st, err := e.PropertyStats(ctx, actor)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(st)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Status", "Count"})
				for _, s := range domain.PropertyStatuses {
					tw.AppendRow(table.Row{propertyBadge(s), st.ByStatus[s]})
				}
				tw.AppendFooter(table.Row{"Total", st.Total})
				tw.Render()
				fmt.Printf("Available value: %s\n", formatPrice(st.AvailableValue))
				if len(st.ByType) > 0 {
					types := table.NewWriter()
					types.SetOutputMirror(os.Stdout)
					types.AppendHeader(table.Row{"Type", "Count", "Share"})
					for _, ts := range st.ByType {
						types.AppendRow(table.Row{ts.Type, ts.Count, fmt.Sprintf("%d%%", ts.Percentage)})
					}
					types.Render()
				}
				return nil
			})
		},
	}
}

func formatPrice(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
