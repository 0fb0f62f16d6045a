// Package template holds the parsed template sets for pages and fragments.
package template

import (
	"html/template"
	"io"
)

// Full pages rendered through the "base" layout.
var Index *template.Template
var Login *template.Template
var Dashboard *template.Template

// Partial-page fragments returned to the hypermedia front end.
var DashboardRefresh *template.Template
var AddAssetModal *template.Template
var EditAssetRow *template.Template
var DeleteAssetRow *template.Template
var AssetHistoryModal *template.Template
var DeletedAssetsModal *template.Template
var ManageCategoriesModal *template.Template
var AddCategoryModal *template.Template

func page(files ...string) *template.Template {
	fileList := append([]string{"template/base.tmpl"}, files...)

	return template.Must(template.ParseFiles(fileList...))
}

func fragment(files ...string) *template.Template {
	return template.Must(template.ParseFiles(files...))
}

func Init() {
	Index = page("template/index.tmpl")
	Login = page("template/login.tmpl")
	Dashboard = page(
		"template/dashboard.tmpl",
		"template/summary_cards.tmpl",
		"template/asset_table.tmpl",
	)

	DashboardRefresh = fragment(
		"template/fragments/dashboard_refresh.tmpl",
		"template/summary_cards.tmpl",
		"template/asset_table.tmpl",
	)
	AddAssetModal = fragment("template/fragments/add_asset_modal.tmpl")
	EditAssetRow = fragment("template/fragments/edit_asset_row.tmpl")
	DeleteAssetRow = fragment("template/fragments/delete_asset_row.tmpl")
	AssetHistoryModal = fragment("template/fragments/asset_history_modal.tmpl")
	DeletedAssetsModal = fragment("template/fragments/deleted_assets_modal.tmpl")
	ManageCategoriesModal = fragment("template/fragments/manage_categories_modal.tmpl")
	AddCategoryModal = fragment("template/fragments/add_category_modal.tmpl")
}

// Render writes a full page through the base layout.
func Render(tmpl *template.Template, writer io.Writer, data interface{}) {
	tmpl.ExecuteTemplate(writer, "base", data)
}

// RenderFragment writes a partial-page fragment with no layout around it.
func RenderFragment(tmpl *template.Template, writer io.Writer, data interface{}) {
	tmpl.Execute(writer, data)
}
