package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yumemi1/animeposter/pkg/bangumi"
	"github.com/yumemi1/animeposter/pkg/blacklist"
	"github.com/yumemi1/animeposter/pkg/cache"
	"github.com/yumemi1/animeposter/pkg/config"
	"github.com/yumemi1/animeposter/pkg/logging"
	"github.com/yumemi1/animeposter/pkg/poster"
	"github.com/yumemi1/animeposter/pkg/schedule"
	"github.com/yumemi1/animeposter/pkg/scheduler"
)

var (
	configPath string
	verbosity  int
)

var rootCmd = cobra.Command{
	Use:   "animeposter",
	Short: "Generate anime broadcast schedule posters from the Bangumi calendar",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbosity)
	},
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

func newClient(cfg config.Config) *bangumi.Client {
	opts := []bangumi.Option{bangumi.WithBaseURL(cfg.API.BaseURL)}
	if cfg.API.UserAgent != "" {
		opts = append(opts, bangumi.WithUserAgent(cfg.API.UserAgent))
	}
	return bangumi.New(opts...)
}

func newBuilder(cfg config.Config) (*schedule.Builder, error) {
	rules := blacklist.Default()
	if cfg.Filter.RulesFile != "" {
		var err error
		rules, err = blacklist.Load(cfg.Filter.RulesFile)
		if err != nil {
			return nil, err
		}
	}
	return schedule.NewBuilder(blacklist.New(rules)), nil
}

func newRenderer(cfg config.Config, ras poster.Rasterizer) *poster.Renderer {
	loader := poster.NewLoader(cfg.Render.TemplateDir)
	vp := poster.Viewport{Width: cfg.Render.ViewportWidth, Height: cfg.Render.ViewportHeight}
	return poster.NewRenderer(loader, ras, vp)
}

// fetchCalendar pulls the weekly calendar, going through mem when the caller
// runs long enough for caching to matter (the daemon does, one-shot commands
// pass nil).
func fetchCalendar(ctx context.Context, cfg config.Config, mem *cache.Memory) ([]bangumi.CalendarDay, error) {
	if mem != nil {
		if v, ok := mem.Get(cache.CalendarKey()); ok {
			return v.([]bangumi.CalendarDay), nil
		}
	}
	days, err := newClient(cfg).Calendar(ctx)
	if err != nil {
		return nil, err
	}
	if mem != nil {
		mem.Set(cache.CalendarKey(), days, 0)
	}
	return days, nil
}

// buildData fetches the calendar and prepares the template data.
func buildData(ctx context.Context, cfg config.Config, weekly bool, mem *cache.Memory) (map[string]any, error) {
	builder, err := newBuilder(cfg)
	if err != nil {
		return nil, err
	}
	calendar, err := fetchCalendar(ctx, cfg, mem)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if weekly {
		return builder.Weekly(calendar, now), nil
	}
	return builder.Daily(calendar, now), nil
}

func generatePoster(ctx context.Context, cfg config.Config, weekly bool, mem *cache.Memory) ([]byte, cache.PosterInfo, error) {
	data, err := buildData(ctx, cfg, weekly, mem)
	if err != nil {
		return nil, cache.PosterInfo{}, err
	}
	ras := poster.NewChromeRasterizer()
	ras.Headless = cfg.Render.Headless
	png, err := newRenderer(cfg, ras).Render(ctx, "daily.html", data)
	if err != nil {
		return nil, cache.PosterInfo{}, err
	}

	kind := cache.PosterDaily
	if weekly {
		kind = cache.PosterWeekly
	}
	store, err := cache.NewPosterStore(cfg.Cache.PosterDir, cfg.Cache.MaxPosterAgeDays)
	if err != nil {
		return nil, cache.PosterInfo{}, err
	}
	count := 0
	if others, ok := data["other_animes"].([]any); ok {
		count = len(others) + 1
	}
	info, err := store.Save(kind, png, cache.PosterInfo{
		Date:       time.Now().Format("2006-01-02"),
		AnimeCount: count,
		Template:   "daily.html",
	})
	return png, info, err
}

var renderWeekly bool
var renderOutput string

var renderCmd = cobra.Command{
	Use:   "render",
	Short: "Generate today's (or the week's) poster PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		png, info, err := generatePoster(cmd.Context(), cfg, renderWeekly, nil)
		if err != nil {
			return err
		}
		if renderOutput != "" {
			if err := os.WriteFile(renderOutput, png, 0o644); err != nil {
				return err
			}
			fmt.Println(renderOutput)
			return nil
		}
		fmt.Println(info.Path)
		return nil
	},
}

var htmlWeekly bool

var htmlCmd = cobra.Command{
	Use:   "html",
	Short: "Print the rendered poster HTML without launching a browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := buildData(cmd.Context(), cfg, htmlWeekly, nil)
		if err != nil {
			return err
		}
		html, err := newRenderer(cfg, nil).HTML("daily.html", data)
		if err != nil {
			return err
		}
		fmt.Println(html)
		return nil
	},
}

var calendarCmd = cobra.Command{
	Use:   "calendar",
	Short: "Print the weekly broadcast schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		days, err := newClient(cfg).Calendar(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(bangumi.FormatCalendar(days, time.Now()))
		return nil
	},
}

var searchType string
var searchLimit int

var searchCmd = cobra.Command{
	Use:   "search <keyword>",
	Short: "Search subjects by keyword",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		results, err := newClient(cfg).SearchSubjects(cmd.Context(), args[0],
			bangumi.ParseSubjectType(searchType), searchLimit)
		if err != nil {
			return err
		}
		fmt.Println(bangumi.FormatSearchResults(results, args[0]))
		return nil
	},
}

var subjectCmd = cobra.Command{
	Use:   "subject <id>",
	Short: "Print one subject's detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid subject id %q", args[0])
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		s, err := newClient(cfg).Subject(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Println(bangumi.FormatSubjectDetail(s))
		return nil
	},
}

var daemonCmd = cobra.Command{
	Use:   "daemon",
	Short: "Run the background scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mem := cache.NewMemory(cfg.Cache.TTL(), cfg.Cache.MaxItems)
		sched := scheduler.New()
		if cfg.Push.Enabled {
			err := sched.AddDaily("poster-pregen", cfg.Push.Time, func(ctx context.Context) error {
				_, _, err := generatePoster(ctx, cfg, false, mem)
				return err
			})
			if err != nil {
				return err
			}
		}
		err = sched.AddDaily("poster-cleanup", "04:00", func(ctx context.Context) error {
			store, err := cache.NewPosterStore(cfg.Cache.PosterDir, cfg.Cache.MaxPosterAgeDays)
			if err != nil {
				return err
			}
			_, err = store.CleanupOld()
			return err
		})
		if err != nil {
			return err
		}
		sched.Run(ctx)
		return nil
	},
}

var cacheCmd = cobra.Command{
	Use:   "cache",
	Short: "Poster cache maintenance",
}

var cacheStatsCmd = cobra.Command{
	Use:   "stats",
	Short: "Show poster cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := cache.NewPosterStore(cfg.Cache.PosterDir, cfg.Cache.MaxPosterAgeDays)
		if err != nil {
			return err
		}
		st := store.Stats()
		fmt.Printf("posters: %d (%.1f KiB)\n", st.TotalPosters, float64(st.TotalSize)/1024)
		fmt.Printf("daily: %v, weekly: %v\n", st.DailyExists, st.WeeklyExists)
		if !st.LastUpdated.IsZero() {
			fmt.Printf("last updated: %s\n", st.LastUpdated.Format(time.RFC3339))
		}
		return nil
	},
}

var cacheCleanCmd = cobra.Command{
	Use:   "clean",
	Short: "Remove expired posters",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := cache.NewPosterStore(cfg.Cache.PosterDir, cfg.Cache.MaxPosterAgeDays)
		if err != nil {
			return err
		}
		removed, err := store.CleanupOld()
		if err != nil {
			return err
		}
		fmt.Printf("removed %d poster(s)\n", removed)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")

	renderCmd.Flags().BoolVar(&renderWeekly, "weekly", false, "Render the weekly poster instead of today's")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Write the PNG to this file")
	rootCmd.AddCommand(&renderCmd)

	htmlCmd.Flags().BoolVar(&htmlWeekly, "weekly", false, "Render the weekly data instead of today's")
	rootCmd.AddCommand(&htmlCmd)

	rootCmd.AddCommand(&calendarCmd)

	searchCmd.Flags().StringVar(&searchType, "type", "anime", "Subject type filter (anime, book, music, game, real)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum number of results")
	rootCmd.AddCommand(&searchCmd)

	rootCmd.AddCommand(&subjectCmd)
	rootCmd.AddCommand(&daemonCmd)

	cacheCmd.AddCommand(&cacheStatsCmd)
	cacheCmd.AddCommand(&cacheCleanCmd)
	rootCmd.AddCommand(&cacheCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
