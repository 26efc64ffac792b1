package router

import (
	"net/url"
	"strings"

	"github.com/frahmantamala/expense-client/internal/core/datamodel/user"
)

type View string

const (
	ViewLogin         View = "login"
	ViewRegister      View = "register"
	ViewDashboard     View = "dashboard"
	ViewExpenseList   View = "expense-list"
	ViewExpenseDetail View = "expense-detail"
)

const (
	PathLogin     = "/login"
	PathRegister  = "/register"
	PathDashboard = "/dashboard"
	PathExpenses  = "/expenses"
)

type AccessState string

const (
	Unauthenticated       AccessState = "unauthenticated"
	AuthenticatedEmployee AccessState = "employee"
	AuthenticatedAdmin    AccessState = "admin"
)

// Principal is what the guard needs from a session. Both fields must be set
// for the caller to count as signed in.
type Principal struct {
	User  *user.User
	Token string
}

func (p Principal) State() AccessState {
	if p.User == nil || p.Token == "" {
		return Unauthenticated
	}
	if p.User.Role == user.RoleAdmin {
		return AuthenticatedAdmin
	}
	return AuthenticatedEmployee
}

// Resolution is the view a requested path lands on.
type Resolution struct {
	View View
	// Path is where the caller ends up. It differs from the request only on redirects.
	Path       string
	Redirected bool
	ExpenseID  string
	// CanTransition is set on the detail view when status actions may be offered.
	CanTransition bool
}

// Home is the landing path for an access state.
func Home(state AccessState) string {
	switch state {
	case AuthenticatedAdmin:
		return PathDashboard
	case AuthenticatedEmployee:
		return PathExpenses
	default:
		return PathLogin
	}
}

// Normalize drops query and fragment and trims trailing slashes. The path
// stays escaped; segments are decoded once, where they are read.
func Normalize(requested string) string {
	p := requested
	if u, err := url.Parse(requested); err == nil {
		p = u.EscapedPath()
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// expenseID extracts {id} from /expenses/{id}.
func expenseID(p string) (string, bool) {
	rest, ok := strings.CutPrefix(p, PathExpenses+"/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	id, err := url.PathUnescape(rest)
	if err != nil {
		// a stray % is part of the id
		return rest, true
	}
	return id, id != ""
}

func redirect(v View, to string) Resolution {
	return Resolution{View: v, Path: to, Redirected: true}
}

// Resolve decides which view a principal reaches for a requested path. It keeps
// no state; call it again whenever the session or the path changes.
func Resolve(p Principal, requested string) Resolution {
	path := Normalize(requested)
	state := p.State()

	if state == Unauthenticated {
		switch path {
		case PathLogin:
			return Resolution{View: ViewLogin, Path: path}
		case PathRegister:
			return Resolution{View: ViewRegister, Path: path}
		default:
			return redirect(ViewLogin, PathLogin)
		}
	}

	// signed-in users never see the auth forms
	if path == PathLogin || path == PathRegister {
		home := Home(state)
		if state == AuthenticatedAdmin {
			return redirect(ViewDashboard, home)
		}
		return redirect(ViewExpenseList, home)
	}

	// role is checked before the wildcard fallback
	if id, ok := expenseID(path); ok {
		return Resolution{
			View:          ViewExpenseDetail,
			Path:          path,
			ExpenseID:     id,
			CanTransition: state == AuthenticatedAdmin,
		}
	}

	if state == AuthenticatedAdmin {
		if path == PathExpenses {
			return Resolution{View: ViewExpenseList, Path: path}
		}
		return Resolution{View: ViewDashboard, Path: path}
	}

	return Resolution{View: ViewExpenseList, Path: path}
}
