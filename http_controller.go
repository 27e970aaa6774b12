package auth

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
	"github.com/google/uuid"
)

// RegisterAccountRoutes mounts the account lifecycle endpoints
func RegisterAccountRoutes[T any](app router.Router[T], opts ...AccountsControllerOption) {
	controller := NewAccountsController(opts...)

	app.Get(controller.Routes.Signup, controller.SignupShow).SetName("signup.get")
	app.Post(controller.Routes.Signup, controller.SignupPost).SetName("signup.post")

	app.Get(controller.Routes.Signin, controller.SigninShow).SetName("signin.get")
	app.Post(controller.Routes.Signin, controller.SigninPost).SetName("signin.post")

	app.Get(controller.Routes.Signout, controller.SignOut).SetName("signout.get")

	app.Get(controller.Routes.Edit, controller.EditShow).SetName("edit.get")
	app.Post(controller.Routes.Edit, controller.EditPost).SetName("edit.post")

	app.Get(fmt.Sprintf("%s/:id/:token", controller.Routes.Verify), controller.Verify).
		SetName("verify.get")

	app.Get(controller.Routes.SendVerification, controller.SendVerification).
		SetName("send-verification.get")

	app.Get(controller.Routes.Recover, controller.RecoveryShow).SetName("recover.get")
	app.Post(controller.Routes.Recover, controller.RecoveryPost).SetName("recover.post")
}

type AccountsControllerRoutes struct {
	Signup           string
	Signin           string
	Signout          string
	Edit             string
	Verify           string
	SendVerification string
	Recover          string
}

type AccountsControllerViews struct {
	Signup  string
	Signin  string
	Edit    string
	Recover string
}

type AccountsController struct {
	Debug        bool
	Logger       Logger
	Flow         *Flow
	Creds        *CredentialStore
	Config       Config
	Routes       *AccountsControllerRoutes
	Views        *AccountsControllerViews
	ErrorHandler router.ErrorHandler
}

type AccountsControllerOption func(*AccountsController) *AccountsController

func NewAccountsController(opts ...AccountsControllerOption) *AccountsController {
	c := &AccountsController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes: &AccountsControllerRoutes{
			Signup:           "/signup",
			Signin:           "/signin",
			Signout:          "/signout",
			Edit:             "/account",
			Verify:           "/verify",
			SendVerification: "/send-verification",
			Recover:          "/recover",
		},
		Views: &AccountsControllerViews{
			Signup:  "signup",
			Signin:  "signin",
			Edit:    "account_edit",
			Recover: "recover",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Flow == nil {
		panic("Missing Flow in accounts controller...")
	}

	if c.Creds == nil {
		panic("Missing CredentialStore in accounts controller...")
	}

	return c
}

func (a *AccountsController) SignupShow(ctx router.Context) error {
	return ctx.Render(a.Views.Signup, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// SignupFormPayload is the registration form payload
type SignupFormPayload struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone_number" json:"phone_number"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r SignupFormPayload) Validate() error {
	if err := r.message().Validate(); err != nil {
		return err
	}

	return validation.ValidateStruct(&r,
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (r SignupFormPayload) message() SignupMessage {
	return SignupMessage{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Password:  r.Password,
	}
}

func (a *AccountsController) SignupPost(ctx router.Context) error {
	payload := new(SignupFormPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("signup parse payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Signup, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("signup validate payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.Signup, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		a.Logger.Debug("signup payload: %s", print.MaybePrettyJSON(payload))
	}

	sess := NewSession()
	user, err := a.Flow.Signup(ctx.Context(), sess, payload.message())
	if err != nil {
		a.Logger.Error("signup error", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  "An error occurred while creating the account",
			"system_message": err.Error(),
		}).Render(a.Views.Signup, router.ViewContext{
			"record": payload,
			"errors": []string{err.Error()},
		})
	}

	// keep the new identity across requests
	if err := a.Creds.Bind(ctx).WriteBearer(user.ID, false); err != nil {
		a.Logger.Error("signup bearer error", "error", err)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Please check your e-mail to validate your account",
	}).Redirect(a.getRedirect(ctx), fiber.StatusSeeOther)
}

func (a *AccountsController) SigninShow(ctx router.Context) error {
	return ctx.Render(a.Views.Signin, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

func (a *AccountsController) SigninPost(ctx router.Context) error {
	payload := new(SigninMessage)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("signin parse payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Signin, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Signin, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	sess := NewSession()
	user, err := a.Flow.Signin(ctx.Context(), sess, a.Creds.Bind(ctx), *payload)
	if err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"error_message": "Your username or password is incorrect.",
		}).Render(a.Views.Signin, router.ViewContext{
			"record": payload,
			"errors": map[string]string{"authentication": "Authentication Error"},
		})
	}

	if !user.Verified {
		return flash.WithSuccess(ctx, router.ViewContext{
			"system_message": "Login successful. Please validate your email address.",
		}).Redirect(a.getRedirect(ctx), fiber.StatusSeeOther)
	}

	return ctx.Redirect(a.getRedirect(ctx), fiber.StatusSeeOther)
}

func (a *AccountsController) SignOut(ctx router.Context) error {
	sess := a.resumeSession(ctx)
	a.Flow.Signout(sess, a.Creds.Bind(ctx))

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "You are now signed out.",
	}).Redirect("/", fiber.StatusSeeOther)
}

func (a *AccountsController) EditShow(ctx router.Context) error {
	sess := a.resumeSession(ctx)
	if !sess.IsAuthenticated() {
		return a.redirectToSignin(ctx)
	}

	return ctx.Render(a.Views.Edit, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

func (a *AccountsController) EditPost(ctx router.Context) error {
	sess := a.resumeSession(ctx)
	if !sess.IsAuthenticated() {
		return a.redirectToSignin(ctx)
	}

	payload := new(UpdateMessage)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("edit parse payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Edit, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if _, err := a.Flow.Update(ctx.Context(), sess, *payload); err != nil {
		a.Logger.Error("edit update error", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message": "Error while resetting password",
		}).Render(a.Views.Edit, router.ViewContext{
			"record": payload,
			"errors": []string{err.Error()},
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Password has been updated successfully.",
	}).Redirect(a.getRedirect(ctx), fiber.StatusSeeOther)
}

func (a *AccountsController) Verify(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return a.ErrorHandler(ctx, ErrNotFound)
	}

	token := ctx.Param("token", "")

	sess := NewSession()
	if _, err := a.Flow.Verify(ctx.Context(), sess, id, token); err != nil {
		a.Logger.Error("verify error", "user", id, "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if err := a.Creds.Bind(ctx).WriteBearer(id, false); err != nil {
		a.Logger.Error("verify bearer error", "error", err)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Email address validated successfully",
	}).Redirect(a.getRedirect(ctx), fiber.StatusSeeOther)
}

func (a *AccountsController) SendVerification(ctx router.Context) error {
	sess := a.resumeSession(ctx)
	if !sess.IsAuthenticated() {
		return a.redirectToSignin(ctx)
	}

	if err := a.Flow.SendVerification(ctx.Context(), sess); err != nil {
		a.Logger.Error("send verification error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Please check your e-mail to validate your account",
	}).Redirect(a.getRedirect(ctx), fiber.StatusSeeOther)
}

func (a *AccountsController) RecoveryShow(ctx router.Context) error {
	return ctx.Render(a.Views.Recover, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// RecoveryPayload holds the address recovery instructions go to
type RecoveryPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r RecoveryPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
	)
}

func (a *AccountsController) RecoveryPost(ctx router.Context) error {
	payload := new(RecoveryPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("recovery parse payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Recover, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Recover, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	// unknown addresses get the same outcome; the flow swallows the miss
	if err := a.Flow.SendRecovery(ctx.Context(), payload.Email); err != nil {
		a.Logger.Error("recovery error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "An email was sent with password recovery instructions.",
	}).Redirect(a.getRedirect(ctx), fiber.StatusSeeOther)
}

func (a *AccountsController) resumeSession(ctx router.Context) *Session {
	sess := NewSession()
	if _, err := a.Flow.Resume(ctx.Context(), sess, a.Creds.Bind(ctx)); err != nil {
		a.Logger.Debug("resume session: %s", err)
	}
	return sess
}

func (a *AccountsController) redirectToSignin(ctx router.Context) error {
	a.setRejectedRoute(ctx)
	return ctx.Redirect(a.Routes.Signin, fiber.StatusSeeOther)
}

func (a *AccountsController) getRedirect(ctx router.Context) string {
	if a.Config == nil {
		return "/"
	}

	rejectedRoute := a.Config.GetRejectedRouteKey()
	if rejectedRoute == "" {
		return "/"
	}

	r := ctx.Cookies(rejectedRoute)
	if r == "" {
		if def := a.Config.GetRejectedRouteDefault(); def != "" {
			return def
		}
		return "/"
	}

	a.clearRejectedRoute(ctx, rejectedRoute)
	return r
}

func (a *AccountsController) setRejectedRoute(ctx router.Context) {
	if a.Config == nil || a.Config.GetRejectedRouteKey() == "" {
		return
	}

	ctx.Cookie(&router.Cookie{
		Name:     a.Config.GetRejectedRouteKey(),
		Value:    ctx.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *AccountsController) clearRejectedRoute(ctx router.Context, name string) {
	ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * 24),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

func defaultErrHandler(c router.Context, err error) error {
	if IsNotFoundError(err) {
		return c.Status(fiber.StatusNotFound).Render("errors/404", router.ViewContext{
			"message": err.Error(),
		})
	}

	return c.Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}
