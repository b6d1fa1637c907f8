package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/posvenda/backend/internal/domain/serviceorder"
	"github.com/posvenda/backend/internal/infrastructure/persistence/models"
)

// serviceOrderUpdateColumns are the columns overwritten when an incoming row
// conflicts on id_ordem_servico. Last write wins per batch and updated_at is
// refreshed; created_at keeps the first ingestion time.
var serviceOrderUpdateColumns = []string{
	"numero", "tipo", "status", "status_servico", "id_tipo_ordem_servico",
	"cliente", "servico", "endereco_instalacao", "pop",
	"descricao_abertura", "descricao_servico", "descricao_fechamento", "disponibilidade",
	"protocolo_atendimento", "id_atendimento", "tipo_atendimento", "status_atendimento",
	"id_tecnico", "nome_tecnico",
	"data_cadastro", "data_inicio_programado", "data_termino_programado",
	"data_inicio_executado", "data_termino_executado",
	"assinado",
	"id_cliente", "codigo_cliente", "nome_razaosocial",
	"telefone_primario", "telefone_secundario", "id_cliente_servico", "servico_descricao",
	"endereco", "numero_endereco", "bairro", "cidade", "estado", "cep",
	"latitude", "longitude",
	"raw", "updated_at",
}

// GormServiceOrderRepository implements serviceorder.Repository using GORM
type GormServiceOrderRepository struct {
	db *gorm.DB
}

// NewGormServiceOrderRepository creates a new GormServiceOrderRepository
func NewGormServiceOrderRepository(db *gorm.DB) *GormServiceOrderRepository {
	return &GormServiceOrderRepository{db: db}
}

// UpsertBatch inserts or updates the whole batch keyed on id_ordem_servico
// inside one transaction and returns the number of affected rows.
func (r *GormServiceOrderRepository) UpsertBatch(ctx context.Context, orders []*serviceorder.ServiceOrder) (int64, error) {
	if len(orders) == 0 {
		return 0, nil
	}

	// ON CONFLICT DO UPDATE cannot touch the same key twice within one
	// statement, so duplicated identifiers collapse here, last write wins.
	rows := make([]*models.ServiceOrderModel, 0, len(orders))
	index := make(map[int64]int, len(orders))
	for _, order := range orders {
		row := models.ServiceOrderModelFromDomain(order)
		if i, ok := index[row.IDOrdemServico]; ok {
			rows[i] = row
			continue
		}
		index[row.IDOrdemServico] = len(rows)
		rows = append(rows, row)
	}

	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id_ordem_servico"}},
			DoUpdates: clause.AssignmentColumns(serviceOrderUpdateColumns),
		}).Create(&rows)
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// FindByID retrieves one order by its natural key.
func (r *GormServiceOrderRepository) FindByID(ctx context.Context, id int64) (*serviceorder.ServiceOrder, error) {
	var model models.ServiceOrderModel
	err := r.db.WithContext(ctx).First(&model, "id_ordem_servico = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, serviceorder.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns orders matching the filter plus the unpaginated total,
// ordered by completion time falling back to registration time, newest
// first.
func (r *GormServiceOrderRepository) List(ctx context.Context, filter serviceorder.ListFilter) ([]serviceorder.ServiceOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ServiceOrderModel{})

	if filter.Status != "" {
		query = query.Where("status LIKE ?", "%"+filter.Status+"%")
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where(
			"numero LIKE ? OR tipo LIKE ? OR cliente LIKE ? OR nome_razaosocial LIKE ? OR cidade LIKE ?",
			like, like, like, like, like)
	}
	if filter.DateFrom != nil {
		query = query.Where("data_cadastro >= ? OR data_termino_executado >= ?", filter.DateFrom, filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("data_cadastro <= ? OR data_termino_executado <= ?", filter.DateTo, filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("COALESCE(data_termino_executado, data_cadastro) DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rows []models.ServiceOrderModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]serviceorder.ServiceOrder, 0, len(rows))
	for i := range rows {
		orders = append(orders, *rows[i].ToDomain())
	}
	return orders, total, nil
}

// CompletedYesterday returns the orders finalized during the previous
// calendar day, newest first.
func (r *GormServiceOrderRepository) CompletedYesterday(ctx context.Context, now time.Time) ([]serviceorder.ServiceOrder, error) {
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)

	var rows []models.ServiceOrderModel
	err := r.db.WithContext(ctx).
		Where("status LIKE ?", "Finaliz%").
		Where("data_termino_executado >= ? AND data_termino_executado < ?", yesterdayStart, todayStart).
		Order("data_termino_executado DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	orders := make([]serviceorder.ServiceOrder, 0, len(rows))
	for i := range rows {
		orders = append(orders, *rows[i].ToDomain())
	}
	return orders, nil
}
