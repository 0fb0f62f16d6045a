// Package category defines the category management fragment routes.
package category

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/alttrack/alttrack/internal/database"
	"github.com/alttrack/alttrack/internal/model"
	"github.com/alttrack/alttrack/internal/route/query"
	"github.com/alttrack/alttrack/internal/route/util"
	"github.com/alttrack/alttrack/internal/session"
	"github.com/alttrack/alttrack/internal/template"
)

func loadUser(conn *database.Conn, writer http.ResponseWriter, request *http.Request, user *model.User) bool {
	found, err := session.LoadUserFromSession(conn, request, user)

	if err != nil {
		util.RespondInternalServerError(writer, err)

		return false
	}

	return found
}

type CategoryListData struct {
	CategoryList []model.Category
}

func renderCategoryList(conn *database.Conn, writer http.ResponseWriter, user *model.User) {
	data := CategoryListData{}

	if err := query.LoadCategoryList(conn, user.ID, &data.CategoryList); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	template.RenderFragment(template.ManageCategoriesModal, writer, data)
}

// HandleManageCategories returns the category management modal fragment.
func HandleManageCategories(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	var user model.User

	if !loadUser(conn, writer, request, &user) {
		util.RespondUnauthorized(writer)

		return
	}

	renderCategoryList(conn, writer, &user)
}

// HandleNewCategoryForm returns the add-category form fragment.
func HandleNewCategoryForm(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	var user model.User

	if !loadUser(conn, writer, request, &user) {
		util.RespondUnauthorized(writer)

		return
	}

	template.RenderFragment(template.AddCategoryModal, writer, nil)
}

// HandleCreateCategory creates a category and re-renders the dashboard
// fragment so risk scores pick up the new asset class.
func HandleCreateCategory(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	var user model.User

	if !loadUser(conn, writer, request, &user) {
		util.RespondUnauthorized(writer)

		return
	}

	request.ParseForm()

	name := request.Form.Get("name")

	if name == "" {
		util.RespondValidationError(writer, "Invalid category name")

		return
	}

	baseRiskScore, err := strconv.Atoi(request.Form.Get("base_risk_score"))

	if err != nil || baseRiskScore < 1 || baseRiskScore > 10 {
		util.RespondValidationError(writer, "Base risk score must be between 1 and 10")

		return
	}

	var liquidityDays *int

	if rawDays := request.Form.Get("liquidity_days"); rawDays != "" {
		days, err := strconv.Atoi(rawDays)

		if err != nil || days < 0 {
			util.RespondValidationError(writer, "Invalid liquidity days")

			return
		}

		liquidityDays = &days
	}

	err = conn.Exec(
		`insert into asset_category(user_id, name, base_risk_score, liquidity_days)
		values ($1, $2, $3, $4)`,
		user.ID,
		name,
		baseRiskScore,
		liquidityDays,
	)

	if err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	renderDashboardFragment(conn, writer, &user)
}

// deleteCategory removes a category, detaching its assets first. Assets are
// never deleted along with their category.
func deleteCategory(conn *database.Conn, categoryID int) error {
	tx, err := conn.Begin()

	if err != nil {
		return err
	}

	defer tx.Rollback()

	if err := tx.Exec("update asset set category_id = null where category_id = $1", categoryID); err != nil {
		return err
	}

	if err := tx.Exec("delete from asset_category where id = $1", categoryID); err != nil {
		return err
	}

	return tx.Commit()
}

// HandleDeleteCategory deletes a category the user owns and re-renders the
// dashboard fragment with the detached assets rescored.
func HandleDeleteCategory(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	var user model.User

	if !loadUser(conn, writer, request, &user) {
		util.RespondUnauthorized(writer)

		return
	}

	categoryID, err := strconv.Atoi(mux.Vars(request)["id"])

	if err != nil {
		util.RespondNotFound(writer)

		return
	}

	var category model.Category

	if err := query.LoadCategoryByID(conn, &category, user.ID, categoryID); err != nil {
		if err == database.ErrNoRows {
			util.RespondForbidden(writer)
		} else {
			util.RespondInternalServerError(writer, err)
		}

		return
	}

	if err := deleteCategory(conn, category.ID); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	renderDashboardFragment(conn, writer, &user)
}

func renderDashboardFragment(conn *database.Conn, writer http.ResponseWriter, user *model.User) {
	data := query.DashboardData{}

	if err := query.LoadDashboardData(conn, user, &data); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	template.RenderFragment(template.DashboardRefresh, writer, data)
}
