package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/geocoder89/authportal/internal/domain/user"
	"golang.org/x/term"
)

var ErrUsage = errors.New("usage")

const usage = `usage: portal <command>

commands:
  signup                      create an account and sign in
  signin                      sign in with email and password
  whoami                      verify the saved session
  profile                     show your profile
  profile set key=value ...   update profile fields (empty value clears)
  signout                     forget the saved session
`

// profileKeys are the fields "profile set" accepts.
var profileKeys = map[string]bool{
	"fullName": true, "age": true, "dob": true, "gender": true, "hobbies": true,
	"motherName": true, "fatherName": true, "userMobile": true, "parentMobile": true,
	"description": true,
}

// App runs one portal command against an API client and a session file.
type App struct {
	API      *Client
	Sessions *SessionStore
	In       *bufio.Reader
	Out      io.Writer

	// ReadPassword reads a line without echo. Defaults to the terminal.
	ReadPassword func() (string, error)
}

func NewApp(api *Client, sessions *SessionStore, in io.Reader, out io.Writer) *App {
	return &App{
		API:      api,
		Sessions: sessions,
		In:       bufio.NewReader(in),
		Out:      out,
		ReadPassword: func() (string, error) {
			b, err := term.ReadPassword(int(os.Stdin.Fd()))
			return string(b), err
		},
	}
}

func (a *App) Usage() { fmt.Fprint(a.Out, usage) }

func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	switch args[0] {
	case "signup":
		return a.signUp(ctx)
	case "signin":
		return a.signIn(ctx)
	case "whoami":
		return a.whoAmI(ctx)
	case "profile":
		if len(args) > 1 {
			if args[1] != "set" || len(args) < 3 {
				return ErrUsage
			}
			return a.setProfile(ctx, args[2:])
		}
		return a.showProfile(ctx)
	case "signout":
		if err := a.Sessions.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(a.Out, "Signed out")
		return nil
	default:
		return ErrUsage
	}
}

func (a *App) signUp(ctx context.Context) error {
	name, err := a.prompt("Full name")
	if err != nil {
		return err
	}
	email, err := a.prompt("Email")
	if err != nil {
		return err
	}
	password, err := a.password("Password")
	if err != nil {
		return err
	}
	confirm, err := a.password("Confirm password")
	if err != nil {
		return err
	}

	res, err := a.API.SignUp(ctx, name, email, password, confirm)
	if err != nil {
		return err
	}
	return a.remember(res)
}

func (a *App) signIn(ctx context.Context) error {
	email, err := a.prompt("Email")
	if err != nil {
		return err
	}
	password, err := a.password("Password")
	if err != nil {
		return err
	}

	res, err := a.API.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	return a.remember(res)
}

func (a *App) whoAmI(ctx context.Context) error {
	sess, err := a.session()
	if err != nil {
		return err
	}

	u, err := a.API.WithToken(sess.Token).Verify(ctx)
	if err != nil {
		// only a rejected token ends the session; a network failure keeps it
		if status := StatusOf(err); status == http.StatusUnauthorized {
			if cerr := a.Sessions.Clear(); cerr != nil {
				return errors.Join(err, cerr)
			}
		}
		return err
	}

	sess.User = &u
	if err := a.Sessions.Save(sess); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Signed in as %s <%s>\n", u.FullName, u.Email)
	return nil
}

func (a *App) showProfile(ctx context.Context) error {
	sess, err := a.session()
	if err != nil {
		return err
	}
	u, err := a.API.WithToken(sess.Token).Profile(ctx)
	if err != nil {
		return err
	}
	printProfile(a.Out, u)
	return nil
}

func (a *App) setProfile(ctx context.Context, pairs []string) error {
	fields, err := ParseProfileArgs(pairs)
	if err != nil {
		return err
	}

	sess, err := a.session()
	if err != nil {
		return err
	}
	msg, u, err := a.API.WithToken(sess.Token).UpdateProfile(ctx, fields)
	if err != nil {
		return err
	}

	sess.User = &u
	if err := a.Sessions.Save(sess); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, msg)
	printProfile(a.Out, u)
	return nil
}

// ParseProfileArgs turns key=value pairs into a profile update body.
// hobbies is a comma separated list; an empty value clears the field.
func ParseProfileArgs(pairs []string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		if !profileKeys[key] {
			return nil, fmt.Errorf("unknown profile field %q", key)
		}

		if key == "hobbies" {
			hobbies := []string{}
			for _, h := range strings.Split(value, ",") {
				if h = strings.TrimSpace(h); h != "" {
					hobbies = append(hobbies, h)
				}
			}
			fields[key] = hobbies
			continue
		}
		fields[key] = value
	}
	return fields, nil
}

func (a *App) session() (Session, error) {
	sess, err := a.Sessions.Load()
	if err != nil {
		return Session{}, err
	}
	if sess.Token == "" {
		return Session{}, errors.New("not signed in; run `portal signin` first")
	}
	return sess, nil
}

func (a *App) remember(res AuthResponse) error {
	u := res.User
	if err := a.Sessions.Save(Session{Token: res.Token, User: &u}); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, res.Message)
	return nil
}

func (a *App) prompt(label string) (string, error) {
	fmt.Fprintf(a.Out, "%s: ", label)
	line, err := a.In.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

func (a *App) password(label string) (string, error) {
	fmt.Fprintf(a.Out, "%s: ", label)
	pw, err := a.ReadPassword()
	fmt.Fprintln(a.Out)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return pw, nil
}

func printProfile(w io.Writer, u user.View) {
	rows := map[string]string{
		"fullName":     u.FullName,
		"email":        u.Email,
		"gender":       u.Gender,
		"hobbies":      strings.Join(u.Hobbies, ", "),
		"motherName":   u.MotherName,
		"fatherName":   u.FatherName,
		"userMobile":   u.UserMobile,
		"parentMobile": u.ParentMobile,
		"description":  u.Description,
	}
	if u.Age != nil {
		rows["age"] = fmt.Sprint(*u.Age)
	}
	if u.DateOfBirth != nil {
		rows["dob"] = u.DateOfBirth.Format("2006-01-02")
	}

	keys := make([]string, 0, len(rows))
	for k, v := range rows {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%-13s %s\n", k+":", rows[k])
	}
}
