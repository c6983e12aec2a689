package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/polytech/coursedesk/internal/catalog"
	"github.com/polytech/coursedesk/internal/config"
	"github.com/polytech/coursedesk/internal/gateway"
	"github.com/polytech/coursedesk/internal/logger"
	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/service"
	"github.com/polytech/coursedesk/internal/session"
)

const sessionFile = "session.json"

func main() {
	var sortBy, group, instructor string
	flag.StringVar(&sortBy, "sort", "subject", "Sort courses by subject, group or instructor")
	flag.StringVar(&group, "group", "", "Only courses of this group")
	flag.StringVar(&instructor, "instructor", "", "Only courses of this instructor")
	flag.Parse()

	cfg := config.Load()
	log := logger.SetupWriter(os.Stderr, cfg.LogLevel, "pretty")

	// A private registry keeps the shared gateway code happy without exposing metrics.
	api := gateway.New(cfg.UpstreamBaseURL, cfg.UpstreamTimeout, gateway.NewMetrics(prometheus.NewRegistry()), log)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.UpstreamTimeout+5*time.Second)
	defer cancel()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "signin":
		err = signIn(ctx, api, cfg, log)
	case "signout":
		err = signOut()
	case "whoami":
		err = whoAmI(ctx, api)
	case "courses":
		q := catalog.Query{
			Search:     strings.Join(args[1:], " "),
			Group:      group,
			Instructor: instructor,
			SortBy:     catalog.ParseSortField(sortBy),
		}
		err = courses(ctx, service.NewCourseService(api, log), q)
	default:
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка:", describe(err))
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: coursectl [flags] <command>")
	fmt.Println("Commands: signin, signout, whoami, courses [search]")
	fmt.Println("Flags:")
	flag.PrintDefaults()
}

func signIn(ctx context.Context, api *gateway.Client, cfg *config.Config, log zerolog.Logger) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("Пароль: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if email == "" || len(pw) == 0 {
		return errors.New("Пожалуйста, заполните все поля")
	}

	auth, err := api.SignIn(ctx, model.SignInRequest{Email: email, Password: string(pw)})
	if err != nil {
		if status := gateway.StatusOf(err); status >= 400 && status < 500 {
			return service.ErrInvalidCredentials
		}
		return err
	}

	now := time.Now()
	sess := session.New(*auth, now, session.Expiry(auth.AccessToken, now, cfg.SessionTTL))
	if err := saveSession(sess); err != nil {
		return err
	}
	log.Debug().Str("user_id", sess.UserID.String()).Msg("Signed in")
	fmt.Printf("Вы вошли как %s\n", sess.Role.Label())
	return nil
}

func signOut() error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	fmt.Println("Вы вышли")
	return nil
}

func whoAmI(ctx context.Context, api *gateway.Client) error {
	sess, err := loadSession()
	if err != nil {
		return err
	}
	user, err := api.CurrentUser(ctx, sess)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s> (%s)\n", user.FullName, user.Email, user.Role.Label())
	return nil
}

func courses(ctx context.Context, svc *service.CourseService, q catalog.Query) error {
	sess, err := loadSession()
	if err != nil {
		return err
	}
	list, err := svc.List(ctx, sess, q)
	if err != nil {
		return err
	}
	if len(list.Courses) == 0 {
		fmt.Println("Курсы не найдены")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tПРЕДМЕТ\tГРУППА\tПРЕПОДАВАТЕЛЬ")
	for _, c := range list.Courses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Subject.Name, c.Group.Name, c.Instructor.FullName)
	}
	return tw.Flush()
}

func describe(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Неверный email или пароль"
	case errors.Is(err, service.ErrUnauthorized):
		return "Сессия истекла, выполните coursectl signin"
	default:
		return err.Error()
	}
}

func sessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "coursedesk", sessionFile), nil
}

func saveSession(sess *session.Session) error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func loadSession() (*session.Session, error) {
	path, err := sessionPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, service.ErrUnauthorized
		}
		return nil, err
	}
	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !sess.Authenticated() || sess.Expired(time.Now()) {
		return nil, service.ErrUnauthorized
	}
	return &sess, nil
}
