package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"car-rental/internal/handlers"
	"car-rental/internal/models"
	"car-rental/internal/pricing"
	"car-rental/internal/render"

	"github.com/spf13/cobra"
)

func newRootCommand(a *app) *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:           "rentctl",
		Short:         "Browse cars, book rentals and manage your rental account",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if apiURL != "" {
				a.cfg.APIBaseURL = apiURL
			}
			return a.open(cmd.Context(), cmd.CommandPath())
		},
	}
	cmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API base URL (overrides RENTAL_API_BASE_URL)")

	cmd.AddCommand(newLoginCommand(a))
	cmd.AddCommand(newRegisterCommand(a))
	cmd.AddCommand(newLogoutCommand(a))
	cmd.AddCommand(newWhoamiCommand(a))
	cmd.AddCommand(newCarsCommand(a))
	cmd.AddCommand(newFavoritesCommand(a))
	cmd.AddCommand(newQuoteCommand(a))
	cmd.AddCommand(newBookCommand(a))
	cmd.AddCommand(newBookingsCommand(a))
	cmd.AddCommand(newProfileCommand(a))
	return cmd
}

func newLoginCommand(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and show the car listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			auth := handlers.NewAuthController(a.deps)
			if !auth.Open(ctx) {
				fmt.Fprintln(a.stdout, "Already logged in.")
				return a.follow(ctx)
			}

			var err error
			if email == "" {
				if email, err = a.prompt("Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = a.promptPassword(); err != nil {
					return err
				}
			}
			if err := a.report(auth.Login(ctx, email, password)); err != nil {
				return err
			}
			return a.follow(ctx)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (will prompt if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Password (optional, will prompt if omitted)")
	return cmd
}

func newRegisterCommand(a *app) *cobra.Command {
	var req models.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			auth := handlers.NewAuthController(a.deps)
			if !auth.Open(ctx) {
				fmt.Fprintln(a.stdout, "Already logged in.")
				return a.follow(ctx)
			}
			auth.Toggle()

			var err error
			if req.Name == "" {
				if req.Name, err = a.prompt("Name: "); err != nil {
					return err
				}
			}
			if req.Email == "" {
				if req.Email, err = a.prompt("Email: "); err != nil {
					return err
				}
			}
			if req.Password == "" {
				if req.Password, err = a.promptPassword(); err != nil {
					return err
				}
			}
			if err := a.report(auth.Register(ctx, req)); err != nil {
				return err
			}
			return a.follow(ctx)
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Full name (will prompt if omitted)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Account email (will prompt if omitted)")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (optional, will prompt if omitted)")
	return cmd
}

// follow waits for the redirect requested by the auth page and shows the
// page it points to.
func (a *app) follow(ctx context.Context) error {
	page, err := a.nav.wait(ctx)
	if err != nil {
		return err
	}
	a.log.Debug().Str("page", string(page)).Msg("navigate")
	if page != handlers.PageCatalog {
		return nil
	}
	catalog := handlers.NewCatalogController(a.deps)
	if err := a.openPage(ctx, catalog.Open); err != nil {
		return err
	}
	return render.Catalog(a.stdout, catalog.View())
}

// openPage runs a guarded page load.
func (a *app) openPage(ctx context.Context, open func(context.Context) (bool, error)) error {
	ok, err := open(ctx)
	if !ok {
		return errNotLoggedIn
	}
	if err != nil {
		return a.report(err)
	}
	return nil
}

func (a *app) requireAuth(ctx context.Context) error {
	if !handlers.RequireAuth(ctx, a.store, a.nav) {
		return errNotLoggedIn
	}
	return nil
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := handlers.Logout(cmd.Context(), a.store, a.nav); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			fmt.Fprintln(a.stdout, "Logged out.")
			return nil
		},
	}
}

func newWhoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user, err := a.store.User(ctx)
			if err != nil {
				return fmt.Errorf("failed to read session: %w", err)
			}
			if user == nil {
				return errNotLoggedIn
			}
			fmt.Fprintf(a.stdout, "%s <%s>\n", user.Name, user.Email)
			if exp, ok := a.store.TokenExpiry(ctx); ok {
				fmt.Fprintf(a.stdout, "Session expires %s\n", exp.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newCarsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cars",
		Short: "List available cars",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := handlers.NewCatalogController(a.deps)
			if err := a.openPage(cmd.Context(), catalog.Open); err != nil {
				return err
			}
			return render.Catalog(a.stdout, catalog.View())
		},
	}
}

func newFavoritesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "List favorite cars",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireAuth(ctx); err != nil {
				return err
			}
			profile := handlers.NewProfileController(a.deps)
			if err := profile.LoadFavorites(ctx); err != nil {
				return a.report(err)
			}
			return render.Favorites(a.stdout, profile.View())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <carId>",
		Short: "Add a car to favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			carID, err := parseID("car id", args[0])
			if err != nil {
				return err
			}
			catalog := handlers.NewCatalogController(a.deps)
			if err := a.openPage(ctx, catalog.Open); err != nil {
				return err
			}
			if catalog.IsFavorite(carID) {
				fmt.Fprintln(a.stdout, "Already in favorites")
				return nil
			}
			return a.report(catalog.ToggleFavorite(ctx, carID))
		},
	})

	var yes bool
	remove := &cobra.Command{
		Use:   "remove <carId>",
		Short: "Remove a car from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			carID, err := parseID("car id", args[0])
			if err != nil {
				return err
			}
			if err := a.requireAuth(ctx); err != nil {
				return err
			}
			ok, err := a.confirm("Remove this car from your favorites?", yes)
			if err != nil || !ok {
				return err
			}
			profile := handlers.NewProfileController(a.deps)
			if err := a.report(profile.RemoveFavorite(ctx, carID)); err != nil {
				return err
			}
			return render.Favorites(a.stdout, profile.View())
		},
	}
	remove.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.AddCommand(remove)
	return cmd
}

// dateRange is the --start/--end pair shared by quote and book.
type dateRange struct {
	start, end string
}

func (r *dateRange) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.start, "start", "", "Pick-up date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&r.end, "end", "", "Return date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

func (r *dateRange) parse() (models.Date, models.Date, error) {
	start, err := models.ParseDate(r.start)
	if err != nil {
		return models.Date{}, models.Date{}, fmt.Errorf("invalid --start: %w", err)
	}
	end, err := models.ParseDate(r.end)
	if err != nil {
		return models.Date{}, models.Date{}, fmt.Errorf("invalid --end: %w", err)
	}
	return start, end, nil
}

// selectCar loads the listing and opens the booking dialog for carID.
func (a *app) selectCar(ctx context.Context, arg string) (*handlers.CatalogController, error) {
	carID, err := parseID("car id", arg)
	if err != nil {
		return nil, err
	}
	catalog := handlers.NewCatalogController(a.deps)
	if err := a.openPage(ctx, catalog.Open); err != nil {
		return nil, err
	}
	if err := catalog.OpenBooking(carID); err != nil {
		if errors.Is(err, handlers.ErrUnknownCar) {
			return nil, fmt.Errorf("car %d not found", carID)
		}
		return nil, err
	}
	return catalog, nil
}

func newQuoteCommand(a *app) *cobra.Command {
	var dates dateRange

	cmd := &cobra.Command{
		Use:   "quote <carId>",
		Short: "Preview the price of a rental",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := dates.parse()
			if err != nil {
				return err
			}
			catalog, err := a.selectCar(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if _, err := catalog.Preview(start, end); err != nil {
				if errors.Is(err, pricing.ErrInvalidRange) {
					return errors.New(pricing.InvalidRangeMessage)
				}
				return err
			}
			return render.Quote(a.stdout, *catalog.View().Booking)
		},
	}
	dates.bind(cmd)
	return cmd
}

func newBookCommand(a *app) *cobra.Command {
	var dates dateRange

	cmd := &cobra.Command{
		Use:   "book <carId>",
		Short: "Book a car",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			start, end, err := dates.parse()
			if err != nil {
				return err
			}
			catalog, err := a.selectCar(ctx, args[0])
			if err != nil {
				return err
			}
			if _, err := catalog.Preview(start, end); err == nil {
				if err := render.Quote(a.stdout, *catalog.View().Booking); err != nil {
					return err
				}
			}
			booking, err := catalog.Book(ctx, start, end)
			if err := a.report(err); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Booking #%d, total $%.2f\n", booking.ID, booking.TotalPrice)
			return nil
		},
	}
	dates.bind(cmd)
	return cmd
}

func newBookingsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "List your bookings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bookings := handlers.NewBookingsController(a.deps)
			if err := a.openPage(cmd.Context(), bookings.Open); err != nil {
				return err
			}
			return render.Bookings(a.stdout, bookings.View())
		},
	}

	var yes bool
	cancel := &cobra.Command{
		Use:   "cancel <bookingId>",
		Short: "Cancel an active booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID("booking id", args[0])
			if err != nil {
				return err
			}
			if err := a.requireAuth(ctx); err != nil {
				return err
			}
			ok, err := a.confirm("Are you sure you want to cancel this booking?", yes)
			if err != nil || !ok {
				return err
			}
			bookings := handlers.NewBookingsController(a.deps)
			if err := a.report(bookings.Cancel(ctx, id)); err != nil {
				return err
			}
			return render.Bookings(a.stdout, bookings.View())
		},
	}
	cancel.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.AddCommand(cancel)
	return cmd
}

func newProfileCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your profile and favorite cars",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile := handlers.NewProfileController(a.deps)
			if err := a.openPage(cmd.Context(), profile.Open); err != nil {
				return err
			}
			v := profile.View()
			if err := render.Profile(a.stdout, v); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "\nFavorites:")
			return render.Favorites(a.stdout, v)
		},
	}

	var name, phone string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change your name or phone number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			profile := handlers.NewProfileController(a.deps)
			if err := a.requireAuth(ctx); err != nil {
				return err
			}
			if err := profile.Load(ctx); err != nil {
				return a.report(err)
			}
			// Unset flags keep the current values, like the prefilled form.
			form := profile.View().Form
			if cmd.Flags().Changed("name") {
				form.Name = name
			}
			if cmd.Flags().Changed("phone") {
				form.Phone = phone
			}
			if err := a.report(profile.Update(ctx, form.Name, form.Phone)); err != nil {
				return err
			}
			return render.Profile(a.stdout, profile.View())
		},
	}
	update.Flags().StringVar(&name, "name", "", "New name")
	update.Flags().StringVar(&phone, "phone", "", "New phone number")
	cmd.AddCommand(update)
	return cmd
}

func parseID(what, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return id, nil
}
