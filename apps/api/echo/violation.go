package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/YOMIx224/student-conduct-system/core"
	"github.com/YOMIx224/student-conduct-system/core/conduct"
)

type conductApi struct {
	svc conduct.Service
}

func registerConductAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc conduct.Service) {
	api := conductApi{svc: svc}

	vg := g.Group("/violations", jwt)

	vg.GET("", api.query)
	vg.POST("", api.record, staffMiddleware())
	vg.GET("/types", api.queryTypes)

	dg := vg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, staffMiddleware())
	dg.DELETE("", api.destroy, staffMiddleware())
	dg.POST("/appeals", api.submitAppeal)
	dg.PATCH("/appeals/:appealID", api.reviewAppeal, staffMiddleware())
}

// Handlers

func (api *conductApi) record(ctx echo.Context) error {
	var data conduct.NewViolation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewViolation")
	}
	if err := data.Validate(core.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	v, err := api.svc.Record(claims.Actor(), data)
	if err != nil {
		return errors.Wrap(err, "recording violation")
	}

	return ctx.JSON(http.StatusCreated, v)
}

// query lists violations: staff see everything or filter with ?student=<code>;
// a student always gets their own record only.
func (api *conductApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	actor := claims.Actor()

	code := ctx.QueryParam("student")
	if code == "" && actor.IsStudent() {
		code = actor.StudentCode
	}

	var violations []conduct.Violation
	if code != "" {
		violations, err = api.svc.QueryByStudent(actor, code)
	} else {
		violations, err = api.svc.QueryAll(actor)
	}
	if err != nil {
		return errors.Wrap(err, "querying violations")
	}
	if violations == nil {
		violations = []conduct.Violation{}
	}
	return ctx.JSON(http.StatusOK, violations)
}

func (api *conductApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	v, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == conduct.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding violation by ID")
	}
	if !claims.IsStaff() && v.StudentCode != claims.StudentCode {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *conductApi) update(ctx echo.Context) error {
	v, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding violation by ID")
	}

	var data conduct.UpdateViolation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateViolation")
	}
	if err := data.Validate(v, core.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	v, err = api.svc.Edit(claims.Actor(), v.ID, data)
	if err != nil {
		return errors.Wrap(err, "editing violation")
	}

	return ctx.JSON(http.StatusOK, v)
}

func (api *conductApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.Delete(claims.Actor(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting violation")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *conductApi) submitAppeal(ctx echo.Context) error {
	var data conduct.NewAppeal
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAppeal")
	}
	if err := data.Validate(core.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	appeal, err := api.svc.SubmitAppeal(claims.Actor(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "submitting appeal")
	}

	return ctx.JSON(http.StatusCreated, appeal)
}

func (api *conductApi) reviewAppeal(ctx echo.Context) error {
	var data conduct.AppealReview
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AppealReview")
	}
	if err := data.Validate(core.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	v, err := api.svc.ReviewAppeal(claims.Actor(), ctx.Param("id"), ctx.Param("appealID"), data)
	if err != nil {
		return errors.Wrap(err, "reviewing appeal")
	}

	return ctx.JSON(http.StatusOK, v)
}

func (api *conductApi) queryTypes(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, conduct.DefaultViolationTypes)
}
