package databases

// go generate: mockery --name TeamDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eventlabs/event-reg-api/models"
)

const teamName = "teams"

// TeamDatabase contains the methods to use with the team database
type TeamDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Team, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Team, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, team models.Team, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
}

type teamDatabase struct {
	db DatabaseHelper
}

// NewTeamDatabase initializes a new instance of team database with the provided db connection
func NewTeamDatabase(db DatabaseHelper) TeamDatabase {
	return &teamDatabase{
		db: db,
	}
}

func (c *teamDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Team, error) {
	team := &models.Team{}
	err := c.db.Collection(teamName).FindOne(ctx, filter, opts...).Decode(&team)
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (c *teamDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Team, error) {
	var teams []models.Team
	cur, err := c.db.Collection(teamName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&teams)
	if err != nil {
		return nil, err
	}
	return teams, nil
}

func (c *teamDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(teamName).CountDocuments(ctx, filter, opts...)
}

func (c *teamDatabase) InsertOne(ctx context.Context, team models.Team, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(teamName).InsertOne(ctx, team, opts...)
}

func (c *teamDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	_, err := c.db.Collection(teamName).UpdateOne(ctx, filter, update, opts...)
	return err
}

func (c *teamDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return c.db.Collection(teamName).DeleteMany(ctx, filter, opts...)
}
