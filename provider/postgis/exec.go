package postgis

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/atlasdatatech/sqltomvt/internal/log"
	"github.com/atlasdatatech/sqltomvt/tileset"
)

// ExecGroups runs the schema SQL of a tileset. The first part runs alone,
// then every layer group runs in its own transaction alongside the others,
// and the last part runs once all groups committed. The first failing part
// stops the run.
func (p *Provider) ExecGroups(ctx context.Context, bundle tileset.SQLBundle) error {
	if err := p.execTx(ctx, "first", bundle.First); err != nil {
		return err
	}

	var wg sync.WaitGroup
	errs := make([]error, len(bundle.Groups))
	for i := range bundle.Groups {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = p.execTx(ctx, bundle.Groups[i].Name, bundle.Groups[i].SQL)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return p.execTx(ctx, "last", bundle.Last)
}

func (p *Provider) execTx(ctx context.Context, name, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	log.Infof("running %v", name)

	tx, err := p.pool.BeginEx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "starting transaction for %v", name)
	}
	if _, err := tx.ExecEx(ctx, sql, nil); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			log.Errorf("rolling back %v: %v", name, rerr)
		}
		return errors.Wrapf(err, "running %v", name)
	}
	return errors.Wrapf(tx.Commit(), "committing %v", name)
}
